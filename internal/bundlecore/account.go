package bundlecore

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/asset-rescue/internal/ethutil"
)

// Account is a local signer: a private key and the address it controls.
type Account struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

func NewAccount(key *ecdsa.PrivateKey) *Account {
	return &Account{Address: gethcrypto.PubkeyToAddress(key.PublicKey), key: key}
}

// AccountFromHex parses a hex private key (0x optional).
func AccountFromHex(pkHex string) (*Account, error) {
	prv, err := ethutil.ParsePrivateKey(pkHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return NewAccount(prv), nil
}

// Key exposes the private key, e.g. to authenticate against a relay.
func (a *Account) Key() *ecdsa.PrivateKey { return a.key }

// SignTx signs with the latest signer for chainID.
func (a *Account) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
}
