package model

import (
	"fmt"
	"math"
	"strings"
)

// AccountType is the closed set of account policies. The set is fixed and
// matched exhaustively (serialization, transaction-limit checks), so it is a
// tagged value rather than an open hierarchy.
type AccountType string

const (
	AccountTypeBeginner AccountType = "Beginner"
	AccountTypeAdvanced AccountType = "Advanced"
	AccountTypeTester   AccountType = "Tester"
)

// AccountTypeFromString parses a stored or user-supplied type name.
// Matching is case-insensitive; unknown names fall back to Beginner, which is
// how legacy vault files without a recognizable type are loaded.
func AccountTypeFromString(s string) AccountType {
	switch strings.ToLower(s) {
	case "advanced":
		return AccountTypeAdvanced
	case "tester":
		return AccountTypeTester
	default:
		return AccountTypeBeginner
	}
}

// Valid reports whether t is one of the closed variant set.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBeginner, AccountTypeAdvanced, AccountTypeTester:
		return true
	}
	return false
}

// TypeName returns the canonical name used in the serialized record.
func (t AccountType) TypeName() string {
	return string(t)
}

// TransactionLimit returns the per-transaction cap for this account type.
// Advanced accounts are unlimited.
func (t AccountType) TransactionLimit() float64 {
	switch t {
	case AccountTypeAdvanced:
		return math.Inf(1)
	case AccountTypeTester:
		return 100.0
	default:
		return 1000.0
	}
}

// UsesRealFunds reports whether transactions on this account type move real
// cryptocurrency. Tester accounts operate on simulated balances only.
func (t AccountType) UsesRealFunds() bool {
	return t != AccountTypeTester
}

func (t AccountType) String() string {
	return string(t)
}

// ValidateAccountType checks a user-supplied type name strictly (no fallback),
// for account creation where a typo must not silently produce a Beginner.
func ValidateAccountType(s string) (AccountType, error) {
	switch strings.ToLower(s) {
	case "beginner":
		return AccountTypeBeginner, nil
	case "advanced":
		return AccountTypeAdvanced, nil
	case "tester":
		return AccountTypeTester, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}
