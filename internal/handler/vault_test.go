package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"evault/internal/audit"
	"evault/internal/auth"
	"evault/internal/model"
	"evault/internal/vault"
)

func newTestHandler(t *testing.T) (*VaultHandler, *vault.Store) {
	t.Helper()
	auditLog := audit.NewLog()
	policy := audit.NewLockoutPolicy(auditLog)
	store := vault.NewStore(t.TempDir())
	coordinator := auth.NewCoordinator(auth.StaticAttestor(true), auditLog, policy, store)
	h := NewVaultHandler(coordinator, store, auditLog, auth.StaticBiometrics("machine"), &chaincfg.RegressionNetParams)
	return h, store
}

func doJSON(t *testing.T, handlerFunc http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func register(t *testing.T, h *VaultHandler, name, accountType, password string) model.RegisterResponse {
	t.Helper()
	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", model.RegisterRequest{
		AccountName: name,
		AccountType: accountType,
		Password:    password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[model.RegisterResponse](t, rec)
}

func login(t *testing.T, h *VaultHandler, name, password string) model.AccountResponse {
	t.Helper()
	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login", model.LoginRequest{
		AccountName: name,
		Password:    password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[model.AccountResponse](t, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := register(t, h, "carol", "Tester", "hunter2")
	require.True(t, resp.Success)
	require.Equal(t, "carol", resp.AccountName)
	require.Len(t, strings.Fields(resp.RecoveryPhrase), 12)

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login", model.LoginRequest{
		AccountName: "carol",
		Password:    "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	view := login(t, h, "carol", "hunter2")
	require.Equal(t, "carol", view.AccountName)
	require.Equal(t, "Tester", view.AccountType)
	require.False(t, view.UsesRealFunds)
}

func TestRegisterDuplicate(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Beginner", "pw")

	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", model.RegisterRequest{
		AccountName: "carol",
		AccountType: "Beginner",
		Password:    "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterInvalidType(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Register, http.MethodPost, "/auth/register", model.RegisterRequest{
		AccountName: "carol",
		AccountType: "Expert",
		Password:    "pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginBiometricMismatch(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Beginner", "pw")

	rec := doJSON(t, h.Login, http.MethodPost, "/auth/login", model.LoginRequest{
		AccountName: "carol",
		Password:    "pw",
		Biometric:   "some-other-device",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateWalletAndSimulatedSend(t *testing.T) {
	h, store := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")

	rec := doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{
		Name: "spending",
		Type: "BITCOIN",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeBody[model.CreateWalletResponse](t, rec)
	require.Equal(t, "spending", created.Name)
	require.Equal(t, "BITCOIN", created.Type)
	require.NotEmpty(t, created.Address)
	require.NotEmpty(t, created.QR)
	require.Less(t, created.KeyIndex, uint32(1)<<31)

	rec = doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{
		Name: "spending",
		Type: "BITCOIN",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "spending",
		ToAddress: "bcrt1qdest",
		Amount:    "1.5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := decodeBody[model.SendResponse](t, rec)
	require.True(t, strings.HasPrefix(sent.TxID, "sim-"))

	account := store.LoadedAccount()
	require.NotNil(t, account)
	wallet := account.Wallet("spending")
	require.InDelta(t, 10000.00-1.5, wallet.FakeBalance, 1e-9)
	require.Len(t, account.Transactions, 1)
	require.Equal(t, sent.TxID, account.Transactions[0].Hash)
	require.Equal(t, "bcrt1qdest", account.Transactions[0].Receiver)
}

func TestSendExceedsLimit(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")
	doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{Name: "w", Type: "BTC"})

	rec := doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "bcrt1qdest",
		Amount:    "200",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendInsufficientSimulatedBalance(t *testing.T) {
	h, store := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")
	doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{Name: "w", Type: "BITCOIN"})

	store.LoadedAccount().Wallet("w").FakeBalance = 0.5

	rec := doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "bcrt1qdest",
		Amount:    "1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Spending the exact balance is allowed.
	rec = doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "bcrt1qdest",
		Amount:    "0.5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.InDelta(t, 0, store.LoadedAccount().Wallet("w").FakeBalance, 1e-9)
}

func TestSendRealFundsUnavailable(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "bob", "Beginner", "pw")
	login(t, h, "bob", "pw")
	doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{Name: "w", Type: "BITCOIN"})

	rec := doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "bcrt1qdest",
		Amount:    "0.1",
	})
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSendRequiresSession(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "x",
		Amount:    "1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateWalletEthereumNotImplemented(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")

	rec := doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{
		Name: "eth",
		Type: "ETHEREUM",
	})
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{
		Name: "mystery",
		Type: "DOGE",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactsResolveOnSend(t *testing.T) {
	h, store := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")
	doJSON(t, h.CreateWallet, http.MethodPost, "/wallets", model.CreateWalletRequest{Name: "w", Type: "BITCOIN"})

	rec := doJSON(t, h.AddContact, http.MethodPost, "/contacts", model.ContactRequest{
		Name:    "alice",
		Address: "bcrt1qalice",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[model.AccountResponse](t, rec)
	require.Equal(t, "bcrt1qalice", view.Contacts["alice"])

	rec = doJSON(t, h.Send, http.MethodPost, "/wallets/send", model.SendRequest{
		Wallet:    "w",
		ToAddress: "alice",
		Amount:    "1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	account := store.LoadedAccount()
	require.Equal(t, "bcrt1qalice", account.Transactions[0].Receiver)
}

func TestListAccounts(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	register(t, h, "bob", "Beginner", "pw")

	rec := doJSON(t, h.ListAccounts, http.MethodGet, "/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[model.ListAccountsResponse](t, rec)
	require.ElementsMatch(t, []string{"carol", "bob"}, list.Accounts)
}

func TestAuditEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	doJSON(t, h.Login, http.MethodPost, "/auth/login", model.LoginRequest{
		AccountName: "carol",
		Password:    "wrong",
	})

	rec := doJSON(t, h.AuditLog, http.MethodGet, "/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[model.AuditLogResponse](t, rec)
	require.GreaterOrEqual(t, resp.FailedInHour, 1)

	statuses := make([]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		statuses = append(statuses, e.Status)
	}
	require.Contains(t, statuses, "ACCOUNT_CREATED")
	require.Contains(t, statuses, "FAILED")
}

func TestLogoutClearsSession(t *testing.T) {
	h, _ := newTestHandler(t)
	register(t, h, "carol", "Tester", "pw")
	login(t, h, "carol", "pw")

	rec := doJSON(t, h.Logout, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.CurrentAccount, http.MethodGet, "/accounts/current", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Register, http.MethodGet, "/auth/register", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
