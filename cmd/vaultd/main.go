package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"evault/internal/api"
	"evault/internal/audit"
	"evault/internal/auth"
	"evault/internal/config"
	"evault/internal/handler"
	"evault/internal/vault"
)

// @title        EncryptoVault API
// @version      1.0
// @description  Local encrypted vault for cryptocurrency account credentials
// @BasePath     /
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	vaultDir, err := config.GetVaultDir()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve vault directory")
	}
	params, err := config.GetChainParams()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve chain parameters")
	}

	auditLog := audit.NewLog()
	policy := audit.NewLockoutPolicy(auditLog)
	store := vault.NewStore(vaultDir)
	if !store.VerifyDirectoryIntegrity(vaultDir) {
		log.Fatal().Str("dir", vaultDir).Msg("vault directory unavailable")
	}

	coordinator := auth.NewCoordinator(auth.PlatformAttestor{}, auditLog, policy, store)
	vaultHandler := handler.NewVaultHandler(coordinator, store, auditLog, auth.MachineBiometrics{}, params)
	router := api.SetupRouter(vaultHandler)

	addr := ":" + config.GetPort()
	log.Info().Str("addr", addr).Str("dir", vaultDir).Str("network", params.Name).Msg("vault server listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
