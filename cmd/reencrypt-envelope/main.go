// Rewrites a legacy CBC vault file as an AEAD envelope under the same
// password and machine biometric. The legacy format stays readable, so this
// is optional; new saves always use the envelope format anyway.
// Usage: go run ./cmd/reencrypt-envelope <vault-file>
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"evault/internal/auth"
	"evault/internal/config"
	"evault/internal/crypto"
	"evault/internal/model"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: reencrypt-envelope <vault-file>")
		os.Exit(1)
	}
	path := os.Args[1]

	fileData, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	password, err := config.PromptForPassword("Vault password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(password)

	biometric, err := auth.MachineBiometrics{}.Capture("reencrypt " + path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	key := crypto.DeriveKey(password, biometric)
	plaintext, err := crypto.Open(key, fileData)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decrypt failed:", err)
		os.Exit(1)
	}

	// Sanity check before rewriting the file.
	account, err := model.AccountFromJSON(plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decrypted payload is not an account:", err)
		os.Exit(1)
	}

	var probe crypto.Envelope
	if json.Unmarshal(fileData, &probe) == nil && probe.CipherText != "" {
		fmt.Println("already in envelope format, nothing to do")
		return
	}

	sealed, err := crypto.Seal(key, plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("reencrypted %s (account %q)\n", path, account.Name)
}
