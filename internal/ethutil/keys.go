package ethutil

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var errEmptyKey = errors.New("empty private key")

// ParsePrivateKey accepts a secp256k1 key as hex, with or without 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" || s == "0X" {
		return nil, errEmptyKey
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(strings.ToLower(s[:2]) + s[2:])
	if err != nil {
		return nil, err
	}
	return crypto.ToECDSA(b)
}
