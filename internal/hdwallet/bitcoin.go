package hdwallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
)

// ErrBroadcastUnavailable is returned when a real-funds transaction is
// requested: constructing and broadcasting on-chain transactions is the job
// of an external chain service, not this vault.
var ErrBroadcastUnavailable = errors.New("transaction broadcast requires an external chain service")

// ChainHandler is the chain-specific collaborator: it turns a derived child
// key into a receive address and hands transactions to the chain.
type ChainHandler interface {
	DeriveAddress(childKey *hdkeychain.ExtendedKey) (string, error)
	SendTx(amountSats int64, destination string) (string, error)
}

// BitcoinHandler derives P2PKH addresses for the configured network. Its
// SendTx is a seam only; broadcast stays external.
type BitcoinHandler struct {
	params *chaincfg.Params
}

// NewBitcoinHandler creates a handler for the given network parameters.
func NewBitcoinHandler(params *chaincfg.Params) *BitcoinHandler {
	return &BitcoinHandler{params: params}
}

// DeriveAddress encodes the child key's compressed public key hash as a
// pay-to-pubkey-hash address.
func (h *BitcoinHandler) DeriveAddress(childKey *hdkeychain.ExtendedKey) (string, error) {
	pubKey, err := childKey.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("failed to extract public key: %w", err)
	}

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey.SerializeCompressed()), h.params)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// SendTx always fails: real funds leave through the external service.
func (h *BitcoinHandler) SendTx(amountSats int64, destination string) (string, error) {
	return "", ErrBroadcastUnavailable
}

// SimulatedHandler derives real addresses but simulates broadcast, for
// Tester accounts that never touch real funds. Transaction ids are random
// and unique per send.
type SimulatedHandler struct {
	BitcoinHandler
}

// NewSimulatedHandler creates a simulated handler over the given network.
func NewSimulatedHandler(params *chaincfg.Params) *SimulatedHandler {
	return &SimulatedHandler{BitcoinHandler{params: params}}
}

// SendTx pretends the transaction confirmed and returns a synthetic txid.
func (h *SimulatedHandler) SendTx(amountSats int64, destination string) (string, error) {
	if amountSats <= 0 {
		return "", errors.New("amount must be positive")
	}
	if destination == "" {
		return "", errors.New("destination address required")
	}
	return "sim-" + uuid.NewString(), nil
}
