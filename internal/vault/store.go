package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"evault/internal/crypto"
	"evault/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/tyler-smith/go-bip39"
)

// Errors surfaced by the store. Decryption failures never distinguish a
// corrupted file from a wrong key.
var (
	ErrAccountNotFound      = errors.New("account file not found")
	ErrDecryptionFailed     = errors.New("account decryption failed")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrDirectoryUnavailable = errors.New("vault directory unavailable")
)

const envelopeExt = ".enc"

// mnemonicEntropyBits yields a 12-word recovery phrase.
const mnemonicEntropyBits = 128

// Store owns the envelope files in one vault directory and holds the single
// loaded-account slot for the active session. It is not safe for concurrent
// use: one authentication attempt must run to completion before the next, or
// concurrent loads race on the slot. Callers serialize.
type Store struct {
	dir    string
	loaded *model.Account
}

// NewStore creates a store over the given directory. The directory is
// created lazily by VerifyDirectoryIntegrity before each load/save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's current directory.
func (s *Store) Dir() string {
	return s.dir
}

// SetDir points the store at a different vault directory. The loaded-account
// slot is unaffected.
func (s *Store) SetDir(dir string) {
	s.dir = dir
}

// VerifyDirectoryIntegrity ensures path exists (creating it if missing) and
// is a readable, writable directory. Called before every load and save;
// a false return aborts the enclosing operation.
func (s *Store) VerifyDirectoryIntegrity(path string) bool {
	if err := os.MkdirAll(path, 0700); err != nil {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}

	// Readability probe.
	if _, err := os.ReadDir(path); err != nil {
		return false
	}

	// Writability probe.
	probe, err := os.CreateTemp(path, ".probe-*")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}

// EncryptAndSave serializes the account, seals it under key and writes the
// envelope to <dir>/<accountName>.enc, overwriting any previous envelope.
func (s *Store) EncryptAndSave(key []byte, account *model.Account) error {
	if !s.VerifyDirectoryIntegrity(s.dir) {
		return ErrDirectoryUnavailable
	}

	plaintext, err := account.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize account: %w", err)
	}

	sealed, err := crypto.Seal(key, plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal account: %w", err)
	}

	path := s.envelopePath(account.Name)
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	log.Debug().Str("account", account.Name).Str("path", path).Msg("account envelope written")
	return nil
}

// DecryptAndLoad reads the account's envelope, re-derives the per-file key
// from the caller-supplied key and the envelope's salt, decrypts and
// deserializes it, and on success fills the loaded-account slot. A missing
// file is ErrAccountNotFound; every other failure is ErrDecryptionFailed.
func (s *Store) DecryptAndLoad(key []byte, accountName string) (*model.Account, error) {
	if !s.VerifyDirectoryIntegrity(s.dir) {
		return nil, ErrDirectoryUnavailable
	}

	fileData, err := os.ReadFile(s.envelopePath(accountName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to read envelope: %w", err)
	}

	plaintext, err := crypto.Open(key, fileData)
	if err != nil {
		// Real cause stays internal; the caller sees one category.
		log.Debug().Err(err).Str("account", accountName).Msg("envelope open failed")
		return nil, ErrDecryptionFailed
	}

	account, err := model.AccountFromJSON(plaintext)
	if err != nil {
		log.Debug().Err(err).Str("account", accountName).Msg("account record rejected")
		return nil, ErrDecryptionFailed
	}

	s.loaded = account
	return account, nil
}

// CreateAccount derives a fresh mnemonic and master seed, builds a new
// account of the given type and seals it under the key derived from
// password and biometric. Fails with ErrDuplicateAccount when an envelope
// for that name already exists; the existing file is left untouched.
func (s *Store) CreateAccount(name string, accountType model.AccountType, password, biometric []byte) (*model.Account, error) {
	if name == "" {
		return nil, errors.New("account name must not be empty")
	}
	if !s.VerifyDirectoryIntegrity(s.dir) {
		return nil, ErrDirectoryUnavailable
	}
	if _, err := os.Stat(s.envelopePath(name)); err == nil {
		return nil, ErrDuplicateAccount
	}

	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, "")

	key := crypto.DeriveKey(password, biometric)
	account, err := model.NewAccount(name, accountType, seed, mnemonic, key)
	if err != nil {
		return nil, err
	}

	if err := s.EncryptAndSave(key, account); err != nil {
		return nil, err
	}

	log.Info().Str("account", name).Str("type", accountType.TypeName()).Msg("account created")
	return account, nil
}

// ListAccountNames returns the envelope file stems in the current directory.
// A directory without accounts yields an empty slice, not an error.
func (s *Store) ListAccountNames() []string {
	if !s.VerifyDirectoryIntegrity(s.dir) {
		return []string{}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return []string{}
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), envelopeExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), envelopeExt))
	}
	return names
}

// LoadedAccount returns the account in the session slot, or nil.
func (s *Store) LoadedAccount() *model.Account {
	return s.loaded
}

// Logout clears the loaded-account slot. Nothing else clears it.
func (s *Store) Logout() {
	s.loaded = nil
}

func (s *Store) envelopePath(accountName string) string {
	return filepath.Join(s.dir, accountName+envelopeExt)
}
