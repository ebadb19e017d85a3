package auth

import (
	"crypto/sha256"
	"net"
)

// BiometricProvider produces the biometric assertion bytes that feed key
// derivation. Empty bytes mean "unavailable", which is a valid assertion:
// the password then carries the key alone. Implementations with hardware
// dialogs bound their own capture time; a timed-out capture must surface as
// a failed assertion, never as ambiguous success.
type BiometricProvider interface {
	Capture(reason string) ([]byte, error)
}

// MachineBiometrics derives the assertion from a hash of the machine's
// primary network-interface identifier. This is a machine fingerprint, not a
// user-presence proof; it matches the platform behavior this vault was built
// against and is documented here rather than hardened.
type MachineBiometrics struct{}

func (MachineBiometrics) Capture(reason string) ([]byte, error) {
	_ = reason

	interfaces, err := net.Interfaces()
	if err != nil {
		return []byte{}, nil
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		sum := sha256.Sum256(iface.HardwareAddr)
		return sum[:], nil
	}

	// No usable interface: biometric factor unavailable.
	return []byte{}, nil
}

// StaticBiometrics returns fixed bytes; the deterministic test double.
type StaticBiometrics []byte

func (b StaticBiometrics) Capture(reason string) ([]byte, error) {
	return []byte(b), nil
}
