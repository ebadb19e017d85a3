package model

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrWalletExists is returned when adding a wallet whose name is taken.
var ErrWalletExists = errors.New("wallet already exists")

// HexBytes is a byte slice that serializes as a hex string, matching the
// encryptionKey encoding of the vault file format.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex value: %w", err)
	}
	*h = b
	return nil
}

// Account is the domain object sealed into a vault file. Name is the stable
// identity (and the on-disk filename stem); BipSeed and Mnemonic are set
// exactly once at creation and never overwritten afterwards, since rewriting
// them would orphan every wallet already derived from the seed.
type Account struct {
	Name          string             `json:"accountName"`
	BipSeed       []byte             `json:"bipSeed"`
	Mnemonic      string             `json:"mnemonic"`
	Contacts      map[string]string  `json:"contacts"`
	Type          AccountType        `json:"accountType"`
	EncryptionKey HexBytes           `json:"encryptionKey"`
	Transactions  []Transaction      `json:"transactions"`
	Wallets       map[string]*Wallet `json:"wallets"`
}

// NewAccount constructs a fresh account. The seed, mnemonic and encryption
// key are fixed for the account's lifetime from this point on.
func NewAccount(name string, accountType AccountType, seed []byte, mnemonic string, encryptionKey []byte) (*Account, error) {
	if name == "" {
		return nil, errors.New("account name must not be empty")
	}
	if !accountType.Valid() {
		accountType = AccountTypeBeginner
	}
	return &Account{
		Name:          name,
		BipSeed:       seed,
		Mnemonic:      mnemonic,
		Contacts:      map[string]string{},
		Type:          accountType,
		EncryptionKey: encryptionKey,
		Transactions:  []Transaction{},
		Wallets:       map[string]*Wallet{},
	}, nil
}

// AccountFromJSON deserializes a decrypted vault record. Unknown account
// type names fall back to Beginner, mirroring how legacy files load.
func AccountFromJSON(data []byte) (*Account, error) {
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account record: %w", err)
	}
	if a.Name == "" {
		return nil, errors.New("account record has no accountName")
	}
	a.Type = AccountTypeFromString(string(a.Type))
	if a.Contacts == nil {
		a.Contacts = map[string]string{}
	}
	if a.Wallets == nil {
		a.Wallets = map[string]*Wallet{}
	}
	return &a, nil
}

// ToJSON serializes the account to its canonical record form.
func (a *Account) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// RecoveryPhrase returns the mnemonic generated at account creation.
func (a *Account) RecoveryPhrase() string {
	return a.Mnemonic
}

// AddContact stores or replaces a named contact address.
func (a *Account) AddContact(name, address string) {
	if a.Contacts == nil {
		a.Contacts = map[string]string{}
	}
	a.Contacts[name] = address
}

// AddWallet registers a wallet under its name. Wallet names are unique per
// account.
func (a *Account) AddWallet(w *Wallet) error {
	if a.Wallets == nil {
		a.Wallets = map[string]*Wallet{}
	}
	if _, ok := a.Wallets[w.Name]; ok {
		return ErrWalletExists
	}
	a.Wallets[w.Name] = w
	return nil
}

// Wallet returns the named wallet, or nil if the account has none by that
// name.
func (a *Account) Wallet(name string) *Wallet {
	return a.Wallets[name]
}

// AppendTransaction adds one record to the account's append-only history.
func (a *Account) AppendTransaction(tx Transaction) {
	a.Transactions = append(a.Transactions, tx)
}
