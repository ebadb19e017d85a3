package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/rs/zerolog/log"

	"evault/internal/audit"
	"evault/internal/auth"
	"evault/internal/common"
	"evault/internal/hdwallet"
	"evault/internal/model"
	"evault/internal/vault"
)

// simulatedStartingBalance is the fake balance every new wallet on a
// simulated-funds account starts with.
const simulatedStartingBalance = 10000.00

// VaultHandler holds the collaborators for vault operations. The store is
// not safe for concurrent use, so every handler serializes through mu.
type VaultHandler struct {
	mu sync.Mutex

	coordinator *auth.Coordinator
	store       *vault.Store
	auditLog    *audit.Log
	biometrics  auth.BiometricProvider
	bitcoin     *hdwallet.BitcoinHandler
	simulated   *hdwallet.SimulatedHandler
	params      *chaincfg.Params
}

// NewVaultHandler creates a new VaultHandler wired to the given collaborators.
func NewVaultHandler(coordinator *auth.Coordinator, store *vault.Store, auditLog *audit.Log, biometrics auth.BiometricProvider, params *chaincfg.Params) *VaultHandler {
	return &VaultHandler{
		coordinator: coordinator,
		store:       store,
		auditLog:    auditLog,
		biometrics:  biometrics,
		bitcoin:     hdwallet.NewBitcoinHandler(params),
		simulated:   hdwallet.NewSimulatedHandler(params),
		params:      params,
	}
}

// biometricBytes resolves the biometric assertion for a request: the value
// the client sent, or a fresh capture from the platform provider when the
// client sent none.
func (h *VaultHandler) biometricBytes(fromRequest, reason string) ([]byte, error) {
	if fromRequest != "" {
		return []byte(fromRequest), nil
	}
	return h.biometrics.Capture(reason)
}

// Register handles POST /auth/register
// @Summary      Create a new vault account
// @Description  Creates an account of the given type, seals it to disk and returns the recovery phrase
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.RegisterRequest  true  "Registration data"
// @Success      200      {object}  model.RegisterResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /auth/register [post]
func (h *VaultHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password must not be empty")
		return
	}

	accountType, err := model.ValidateAccountType(req.AccountType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	biometric, err := h.biometricBytes(req.Biometric, "register "+req.AccountName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	h.mu.Lock()
	account, err := h.coordinator.CreateAccount(req.AccountName, accountType, password, biometric)
	h.mu.Unlock()
	if err != nil {
		switch {
		case errors.Is(err, vault.ErrDuplicateAccount):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, vault.ErrDirectoryUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, model.RegisterResponse{
		Success:        true,
		AccountName:    account.Name,
		RecoveryPhrase: account.RecoveryPhrase(),
	})
}

// Login handles POST /auth/login
// @Summary      Authenticate and load an account
// @Description  Verifies platform trust and lockout state, then decrypts the named account into the session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      model.LoginRequest  true  "Login data"
// @Success      200      {object}  model.AccountResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      423      {object}  model.ErrorResponse
// @Router       /auth/login [post]
func (h *VaultHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	biometric, err := h.biometricBytes(req.Biometric, "login "+req.AccountName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	h.mu.Lock()
	account, err := h.coordinator.Authenticate(req.AccountName, password, biometric)
	h.mu.Unlock()
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUntrustedPlatform):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, auth.ErrTooManyAttempts):
			writeError(w, http.StatusLocked, err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, accountView(account))
}

// Logout handles POST /auth/logout
// @Summary      End the current session
// @Description  Clears the loaded account; a logout without a session is a no-op
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /auth/logout [post]
func (h *VaultHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	h.coordinator.Logout()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListAccounts handles GET /accounts
// @Summary      List stored account names
// @Description  Lists the names of all sealed accounts in the vault directory
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  model.ListAccountsResponse
// @Router       /accounts [get]
func (h *VaultHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	names := h.store.ListAccountNames()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, model.ListAccountsResponse{Accounts: names})
}

// CurrentAccount handles GET /accounts/current
// @Summary      Get the loaded account
// @Description  Returns a view of the account currently held in the session
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  model.AccountResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /accounts/current [get]
func (h *VaultHandler) CurrentAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	account := h.store.LoadedAccount()
	h.mu.Unlock()
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no account loaded")
		return
	}

	writeJSON(w, http.StatusOK, accountView(account))
}

// AddContact handles POST /contacts
// @Summary      Add a contact to the loaded account
// @Description  Adds or replaces a named contact address and reseals the account
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        request  body      model.ContactRequest  true  "Contact data"
// @Success      200      {object}  model.AccountResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /contacts [post]
func (h *VaultHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "contact name and address must not be empty")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	account := h.store.LoadedAccount()
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no account loaded")
		return
	}

	account.AddContact(req.Name, req.Address)
	if err := h.store.EncryptAndSave(account.EncryptionKey, account); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, accountView(account))
}

// CreateWallet handles POST /wallets
// @Summary      Create a wallet in the loaded account
// @Description  Derives a hardened child key and address for the wallet, reseals the account and returns a QR code for the address
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateWalletRequest  true  "Wallet data"
// @Success      200      {object}  model.CreateWalletResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallets [post]
func (h *VaultHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "wallet name must not be empty")
		return
	}

	walletType := model.WalletTypeFromString(req.Type)
	switch walletType {
	case model.WalletTypeBitcoin:
	case model.WalletTypeEthereum:
		writeError(w, http.StatusNotImplemented, "no chain handler for ETHEREUM wallets")
		return
	default:
		writeError(w, http.StatusBadRequest, "unknown wallet type: "+req.Type)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	account := h.store.LoadedAccount()
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no account loaded")
		return
	}

	childKey, keyIndex, err := hdwallet.DeriveWalletKey(account, walletType, h.params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	address, err := h.bitcoin.DeriveAddress(childKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	wallet := model.NewWallet(req.Name, walletType, address)
	if !account.Type.UsesRealFunds() {
		wallet.FakeBalance = simulatedStartingBalance
	}
	if err := account.AddWallet(wallet); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := h.store.EncryptAndSave(account.EncryptionKey, account); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	qr, err := hdwallet.AddressQR(address)
	if err != nil {
		log.Warn().Str("wallet", req.Name).Err(err).Msg("address QR generation failed")
	}

	writeJSON(w, http.StatusOK, model.CreateWalletResponse{
		Name:     wallet.Name,
		Type:     wallet.Type.String(),
		Address:  wallet.Address,
		KeyIndex: keyIndex,
		QR:       qr,
	})
}

// Send handles POST /wallets/send
// @Summary      Send funds from a wallet
// @Description  Sends from the named wallet; simulated-funds accounts get a fake txid and a history entry, real-funds accounts require an external broadcast service
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Send data"
// @Success      200      {object}  model.SendResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Router       /wallets/send [post]
func (h *VaultHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sats, err := common.BTCToSatoshi(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountBTC := float64(sats) / 1e8

	h.mu.Lock()
	defer h.mu.Unlock()

	account := h.store.LoadedAccount()
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no account loaded")
		return
	}

	wallet := account.Wallet(req.Wallet)
	if wallet == nil {
		writeError(w, http.StatusNotFound, "wallet not found: "+req.Wallet)
		return
	}

	if amountBTC > account.Type.TransactionLimit() {
		writeError(w, http.StatusForbidden, "amount exceeds the transaction limit for "+account.Type.TypeName()+" accounts")
		return
	}

	// Contact names resolve to their stored address.
	destination := req.ToAddress
	if addr, ok := account.Contacts[req.ToAddress]; ok {
		destination = addr
	}

	if account.Type.UsesRealFunds() {
		txID, err := h.bitcoin.SendTx(int64(sats), destination)
		if err != nil {
			if errors.Is(err, hdwallet.ErrBroadcastUnavailable) {
				writeError(w, http.StatusNotImplemented, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, model.SendResponse{TxID: txID})
		return
	}

	// Compare as decimal strings so a balance that equals the amount after
	// float rounding still spends cleanly.
	balance := common.SatoshiToBTC(uint64(math.Round(wallet.FakeBalance * 1e8)))
	cmp, err := common.CompareBTCAmounts(req.Amount, balance)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cmp > 0 {
		writeError(w, http.StatusBadRequest, "insufficient simulated balance")
		return
	}

	txID, err := h.simulated.SendTx(int64(sats), destination)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wallet.FakeBalance -= amountBTC
	account.AppendTransaction(model.Transaction{
		Timestamp: time.Now(),
		Amount:    amountBTC,
		Hash:      txID,
		Sender:    wallet.Address,
		Receiver:  destination,
		Name:      wallet.Name,
	})
	if err := h.store.EncryptAndSave(account.EncryptionKey, account); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.SendResponse{TxID: txID})
}

// AuditLog handles GET /audit
// @Summary      Get the authentication audit log
// @Description  Returns all audit entries in timestamp order plus the failed-attempt count for the last hour
// @Tags         audit
// @Produce      json
// @Success      200  {object}  model.AuditLogResponse
// @Router       /audit [get]
func (h *VaultHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	entries := h.auditLog.Entries()
	views := make([]model.AuditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, model.AuditEntryView{
			Timestamp:   e.Timestamp,
			AccountName: e.AccountName,
			Status:      string(e.Status),
		})
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, model.AuditLogResponse{
		Entries:      views,
		FailedInHour: h.auditLog.FailureCount(now.Add(-time.Hour), now),
	})
}

func accountView(account *model.Account) model.AccountResponse {
	walletNames := make([]string, 0, len(account.Wallets))
	for name := range account.Wallets {
		walletNames = append(walletNames, name)
	}
	sort.Strings(walletNames)

	limit := "unlimited"
	if l := account.Type.TransactionLimit(); !math.IsInf(l, 1) {
		limit = common.SatoshiToBTC(uint64(l * 1e8))
	}

	return model.AccountResponse{
		AccountName:      account.Name,
		AccountType:      account.Type.TypeName(),
		TransactionLimit: limit,
		UsesRealFunds:    account.Type.UsesRealFunds(),
		Contacts:         account.Contacts,
		WalletNames:      walletNames,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}
