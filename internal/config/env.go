package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// defaultVaultDirName is the dot-directory under the user's home that holds
// the account envelope files when VAULT_DIR is not set.
const defaultVaultDirName = ".EncryptoVault"

// Config contains all configuration parameters for the application.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	VaultDir string `envconfig:"VAULT_DIR"`
	Network  string `envconfig:"BITCOIN_NETWORK" default:"testnet3"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetVaultDir returns the vault directory, defaulting to ~/.EncryptoVault
// when VAULT_DIR is unset.
func GetVaultDir() (string, error) {
	if dir := Get().VaultDir; dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultVaultDirName), nil
}

// GetChainParams returns the Bitcoin network parameters from configuration.
func GetChainParams() (*chaincfg.Params, error) {
	switch Get().Network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown bitcoin network %q", Get().Network)
}

// PromptForPassword prompts for a password in the terminal.
// The password is read without echoing (hidden input).
// Caller must zero the returned slice after use for security.
func PromptForPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	password := make([]byte, len(raw))
	copy(password, raw)
	clear(raw)
	return password, nil
}
