package auth

import (
	"errors"
	"time"

	"evault/internal/audit"
	"evault/internal/crypto"
	"evault/internal/model"
	"evault/internal/vault"

	"github.com/rs/zerolog/log"
)

// Coordinator-level failures. Account-absent and wrong-key collapse into
// ErrInvalidCredentials so callers cannot enumerate account names.
var (
	ErrUntrustedPlatform  = errors.New("secure boot attestation failed")
	ErrTooManyAttempts    = errors.New("too many failed authentication attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Coordinator runs the authentication state machine: attest, lockout check,
// key derivation, vault load, with every stage recorded in the audit log.
// Services are injected; the composition root owns their lifetimes.
type Coordinator struct {
	attestor Attestor
	policy   *audit.LockoutPolicy
	auditLog *audit.Log
	store    *vault.Store

	// now is the single time reference for an attempt; replaced in tests.
	now func() time.Time
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(attestor Attestor, auditLog *audit.Log, policy *audit.LockoutPolicy, store *vault.Store) *Coordinator {
	return &Coordinator{
		attestor: attestor,
		policy:   policy,
		auditLog: auditLog,
		store:    store,
		now:      time.Now,
	}
}

// Authenticate attempts to open the named account's vault with the supplied
// credentials. Terminal outcomes:
//
//   - ErrUntrustedPlatform: attestation failed; nothing is written to the
//     audit log on this path.
//   - ErrTooManyAttempts: the lockout window holds too many failures; the
//     blocked attempt is itself recorded as FAILED.
//   - ErrInvalidCredentials: the vault would not open, whether the account
//     is absent or the key is wrong; recorded as FAILED.
//
// On success the account fills the store's session slot and a SUCCESS entry
// is recorded.
func (c *Coordinator) Authenticate(accountName string, password, biometric []byte) (*model.Account, error) {
	if !c.attestor.EnsureSecureBoot() {
		log.Warn().Msg("authentication refused: platform root of trust not attested")
		return nil, ErrUntrustedPlatform
	}

	now := c.now()
	if err := c.policy.Check(now); err != nil {
		c.auditLog.AddEntry(accountName, now, audit.StatusFailed)
		log.Warn().Str("account", accountName).Msg("authentication blocked by lockout policy")
		return nil, ErrTooManyAttempts
	}

	c.auditLog.AddEntry(accountName, now, audit.StatusAttempting)

	key := crypto.DeriveKey(password, biometric)
	account, err := c.store.DecryptAndLoad(key, accountName)
	if err != nil {
		c.auditLog.AddEntry(accountName, c.now(), audit.StatusFailed)
		log.Info().Str("account", accountName).Msg("authentication failed")
		return nil, ErrInvalidCredentials
	}

	c.auditLog.AddEntry(accountName, c.now(), audit.StatusSuccess)
	log.Info().Str("account", accountName).Str("type", account.Type.TypeName()).Msg("authentication succeeded")
	return account, nil
}

// CreateAccount creates and seals a new account, recording ACCOUNT_CREATED.
// Store-level failures (duplicate name, unavailable directory) pass through
// unchanged.
func (c *Coordinator) CreateAccount(accountName string, accountType model.AccountType, password, biometric []byte) (*model.Account, error) {
	account, err := c.store.CreateAccount(accountName, accountType, password, biometric)
	if err != nil {
		return nil, err
	}
	c.auditLog.AddEntry(accountName, c.now(), audit.StatusAccountCreated)
	return account, nil
}

// Logout clears the session slot and records LOGOUT for the account that
// held it. A logout without a session is a no-op.
func (c *Coordinator) Logout() {
	account := c.store.LoadedAccount()
	if account == nil {
		return
	}
	c.auditLog.AddEntry(account.Name, c.now(), audit.StatusLogout)
	c.store.Logout()
	log.Info().Str("account", account.Name).Msg("logged out")
}
