package api

import (
	"net/http"

	"evault/internal/handler"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(vaultHandler *handler.VaultHandler) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints
	mux.HandleFunc("/auth/register", vaultHandler.Register)
	mux.HandleFunc("/auth/login", vaultHandler.Login)
	mux.HandleFunc("/auth/logout", vaultHandler.Logout)

	// Account endpoints
	mux.HandleFunc("/accounts", vaultHandler.ListAccounts)
	mux.HandleFunc("/accounts/current", vaultHandler.CurrentAccount)
	mux.HandleFunc("/contacts", vaultHandler.AddContact)

	// Wallet endpoints
	mux.HandleFunc("/wallets", vaultHandler.CreateWallet)
	mux.HandleFunc("/wallets/send", vaultHandler.Send)

	// Audit endpoint
	mux.HandleFunc("/audit", vaultHandler.AuditLog)

	return mux
}
