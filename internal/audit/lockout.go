package audit

import (
	"errors"
	"time"
)

// ErrLockedOut is returned by LockoutPolicy.Check when recent failures
// exceed the threshold.
var ErrLockedOut = errors.New("too many failed attempts in lockout window")

const (
	// DefaultLockoutWindow is the trailing interval over which failures
	// are counted.
	DefaultLockoutWindow = 10 * time.Minute

	// DefaultLockoutThreshold is the failure count above which further
	// attempts are blocked.
	DefaultLockoutThreshold = 6
)

// LockoutPolicy blocks authentication while the trailing window holds more
// than Threshold failures. The window is evaluated fresh on every check, not
// reset on success: a burst of failures anywhere in the window blocks every
// account name until the window ages out.
type LockoutPolicy struct {
	log       *Log
	Window    time.Duration
	Threshold int
}

// NewLockoutPolicy creates a policy over the given log with the default
// window and threshold.
func NewLockoutPolicy(log *Log) *LockoutPolicy {
	return &LockoutPolicy{
		log:       log,
		Window:    DefaultLockoutWindow,
		Threshold: DefaultLockoutThreshold,
	}
}

// Check returns ErrLockedOut when the failure count in (now-Window, now]
// exceeds the threshold.
func (p *LockoutPolicy) Check(now time.Time) error {
	if p.log.FailureCount(now.Add(-p.Window), now) > p.Threshold {
		return ErrLockedOut
	}
	return nil
}
