package hdwallet

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"evault/internal/model"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// KeyIndex maps an (account name, wallet type) pair to a stable hardened
// derivation index in [0, 2^31): the first four bytes of the SHA-256 digest
// of "<accountName>-<walletType>", big-endian, reduced mod 2^31. The same
// pair always yields the same index, so a wallet's child key is reproducible
// from the master seed without persisting any child key material. The index
// is per account and type, not per wallet instance: two wallets of the same
// type under one account share it.
func KeyIndex(accountName string, walletType model.WalletType) uint32 {
	sum := sha256.Sum256([]byte(accountName + "-" + walletType.String()))
	return binary.BigEndian.Uint32(sum[:4]) % (1 << 31)
}

// MasterKey builds the account's BIP32 master extended key from its seed.
func MasterKey(account *model.Account, params *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	master, err := hdkeychain.NewMaster(account.BipSeed, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build master key: %w", err)
	}
	return master, nil
}

// ChildKey derives the hardened child at the given index.
func ChildKey(master *hdkeychain.ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	child, err := master.Derive(hdkeychain.HardenedKeyStart + index)
	if err != nil {
		return nil, fmt.Errorf("failed to derive child key %d: %w", index, err)
	}
	return child, nil
}

// DeriveWalletKey is the full path from an account to the child key backing
// a wallet of the given type, returning the index used alongside the key.
func DeriveWalletKey(account *model.Account, walletType model.WalletType, params *chaincfg.Params) (*hdkeychain.ExtendedKey, uint32, error) {
	master, err := MasterKey(account, params)
	if err != nil {
		return nil, 0, err
	}
	index := KeyIndex(account.Name, walletType)
	child, err := ChildKey(master, index)
	if err != nil {
		return nil, 0, err
	}
	return child, index, nil
}
