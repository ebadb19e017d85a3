package auth

import (
	"testing"
	"time"

	"evault/internal/audit"
	"evault/internal/model"
	"evault/internal/vault"

	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *audit.Log, *vault.Store) {
	t.Helper()
	auditLog := audit.NewLog()
	store := vault.NewStore(t.TempDir())
	c := NewCoordinator(StaticAttestor(true), auditLog, audit.NewLockoutPolicy(auditLog), store)
	return c, auditLog, store
}

func TestAuthenticateSuccess(t *testing.T) {
	c, auditLog, store := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	account, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	require.Equal(t, "alice", account.Name)
	require.Same(t, account, store.LoadedAccount())

	entries := auditLog.Entries()
	statuses := make([]audit.Status, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.Status)
	}
	require.Equal(t, []audit.Status{
		audit.StatusAccountCreated,
		audit.StatusAttempting,
		audit.StatusSuccess,
	}, statuses)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	c, auditLog, _ := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	_, err = c.Authenticate("alice", []byte("wrong"), []byte("bio"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	now := time.Now()
	require.Equal(t, 1, auditLog.FailureCount(now.Add(-time.Minute), now))
}

func TestAuthenticateUnknownAccountSameError(t *testing.T) {
	c, _, _ := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	_, wrongKey := c.Authenticate("alice", []byte("wrong"), []byte("bio"))
	_, absent := c.Authenticate("nobody", []byte("hunter2"), []byte("bio"))

	// Account-absent and wrong-key are indistinguishable to the caller.
	require.Equal(t, wrongKey, absent)
	require.ErrorIs(t, absent, ErrInvalidCredentials)
}

func TestAuthenticateUntrustedPlatform(t *testing.T) {
	auditLog := audit.NewLog()
	store := vault.NewStore(t.TempDir())
	c := NewCoordinator(StaticAttestor(false), auditLog, audit.NewLockoutPolicy(auditLog), store)

	_, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.ErrorIs(t, err, ErrUntrustedPlatform)

	// The attestation path writes nothing to the audit log.
	require.Empty(t, auditLog.Entries())
}

func TestAuthenticateLockout(t *testing.T) {
	c, auditLog, _ := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err := c.Authenticate("alice", []byte("wrong"), []byte("bio"))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The 8th attempt is blocked before key derivation, even with the
	// correct credentials, and even for an unrelated account name.
	_, err = c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = c.Authenticate("bob", []byte("anything"), nil)
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// No ATTEMPTING entry for the blocked attempts.
	attempting := 0
	for _, e := range auditLog.Entries() {
		if e.Status == audit.StatusAttempting {
			attempting++
		}
	}
	require.Equal(t, 7, attempting)
}

func TestAuthenticateLockoutRetriesExtendWindow(t *testing.T) {
	auditLog := audit.NewLog()
	store := vault.NewStore(t.TempDir())
	c := NewCoordinator(StaticAttestor(true), auditLog, audit.NewLockoutPolicy(auditLog), store)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	t0 := time.Now()
	for i := 0; i < 7; i++ {
		auditLog.AddEntry("alice", t0.Add(time.Duration(i)*time.Second), audit.StatusFailed)
	}

	// Blocked retries record FAILED themselves, so hammering a locked
	// vault keeps the trailing window populated.
	for i := 0; i < 7; i++ {
		c.now = func() time.Time { return t0.Add(5*time.Minute + time.Duration(i)*time.Second) }
		_, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
		require.ErrorIs(t, err, ErrTooManyAttempts)
	}

	// The original burst has aged out, but the retries have not.
	c.now = func() time.Time { return t0.Add(11 * time.Minute) }
	_, err = c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// Silence for a full window finally clears the lock.
	c.now = func() time.Time { return t0.Add(22 * time.Minute) }
	account, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	require.Equal(t, "alice", account.Name)
}

func TestAuthenticateLockoutAgesOut(t *testing.T) {
	auditLog := audit.NewLog()
	store := vault.NewStore(t.TempDir())
	c := NewCoordinator(StaticAttestor(true), auditLog, audit.NewLockoutPolicy(auditLog), store)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	// Burst of old failures, just outside the trailing window.
	old := time.Now().Add(-audit.DefaultLockoutWindow - time.Minute)
	for i := 0; i < 10; i++ {
		auditLog.AddEntry("alice", old.Add(time.Duration(i)*time.Second), audit.StatusFailed)
	}

	account, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	require.Equal(t, "alice", account.Name)
}

func TestFullScenario(t *testing.T) {
	c, _, store := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	require.Contains(t, store.ListAccountNames(), "alice")

	account, err := c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	require.Equal(t, "alice", account.Name)

	for i := 0; i < 7; i++ {
		_, err = c.Authenticate("alice", []byte("wrong"), []byte("bio"))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLogout(t *testing.T) {
	c, auditLog, store := newTestCoordinator(t)

	_, err := c.CreateAccount("alice", model.AccountTypeBeginner, []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)
	_, err = c.Authenticate("alice", []byte("hunter2"), []byte("bio"))
	require.NoError(t, err)

	c.Logout()
	require.Nil(t, store.LoadedAccount())

	entries := auditLog.Entries()
	require.Equal(t, audit.StatusLogout, entries[len(entries)-1].Status)

	// Logout without a session changes nothing.
	c.Logout()
	require.Len(t, auditLog.Entries(), len(entries))
}

func TestStaticBiometrics(t *testing.T) {
	b, err := StaticBiometrics("fingerprint").Capture("test")
	require.NoError(t, err)
	require.Equal(t, []byte("fingerprint"), b)
}
