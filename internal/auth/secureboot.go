package auth

import (
	"os"
	"runtime"
)

// Attestor reports whether the device's boot chain is trusted enough to
// believe its biometric sensor. A false answer is a hard stop for
// authentication.
type Attestor interface {
	EnsureSecureBoot() bool
}

// efiSecureBootVar is the SecureBoot EFI variable exposed by the kernel.
// Its payload is four bytes of attributes followed by the value byte.
const efiSecureBootVar = "/sys/firmware/efi/efivars/SecureBoot-8be4df61-93ca-11d2-aa0d-00e098032b8c"

// PlatformAttestor probes the running platform's root of trust.
type PlatformAttestor struct{}

// EnsureSecureBoot trusts the boot chain unconditionally on darwin, probes
// the EFI SecureBoot variable on linux, and fails closed on anything else.
func (PlatformAttestor) EnsureSecureBoot() bool {
	switch runtime.GOOS {
	case "darwin":
		return true
	case "linux":
		data, err := os.ReadFile(efiSecureBootVar)
		if err != nil || len(data) < 5 {
			return false
		}
		return data[4] == 1
	default:
		return false
	}
}

// StaticAttestor is a deterministic attestor for tests and composition.
type StaticAttestor bool

func (a StaticAttestor) EnsureSecureBoot() bool {
	return bool(a)
}
