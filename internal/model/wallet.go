package model

// WalletType tags a wallet with the chain it belongs to.
type WalletType string

const (
	WalletTypeBitcoin  WalletType = "BITCOIN"
	WalletTypeEthereum WalletType = "ETHEREUM"
	WalletTypeUnknown  WalletType = "UNKNOWN"
)

// WalletTypeFromString parses a wallet type tag, accepting the short ticker
// aliases found in older vault files.
func WalletTypeFromString(s string) WalletType {
	switch s {
	case "BITCOIN", "BTC":
		return WalletTypeBitcoin
	case "ETHEREUM", "ETH":
		return WalletTypeEthereum
	default:
		return WalletTypeUnknown
	}
}

func (t WalletType) String() string {
	return string(t)
}

// Holding is a single asset position inside a wallet.
type Holding struct {
	Amount float64 `json:"amount"`
}

// Wallet is one named wallet inside an account. The address is derived once
// from the account's master seed and cached; balances are refreshed by the
// external chain collaborator. Wallets are never mutated on disk in place,
// only replaced wholesale when the owning account is resaved.
type Wallet struct {
	Name        string             `json:"name"`
	Type        WalletType         `json:"type"`
	Address     string             `json:"address"`
	Balance     float64            `json:"balance"`
	FakeBalance float64            `json:"fake_balance"`
	Holdings    map[string]Holding `json:"holdings"`
}

// NewWallet constructs a wallet record with an empty holdings map.
func NewWallet(name string, walletType WalletType, address string) *Wallet {
	return &Wallet{
		Name:     name,
		Type:     walletType,
		Address:  address,
		Holdings: map[string]Holding{},
	}
}

// AddHolding adds amount to the named asset position, removing the position
// entirely if it drops to zero or below.
func (w *Wallet) AddHolding(assetID string, amount float64) {
	if w.Holdings == nil {
		w.Holdings = map[string]Holding{}
	}
	next := w.Holdings[assetID].Amount + amount
	if next <= 0 {
		delete(w.Holdings, assetID)
		return
	}
	w.Holdings[assetID] = Holding{Amount: next}
}
