package ethutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivateKey(t *testing.T) {
	want := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	for _, in := range []string{
		"0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		"4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		"  0X4C0883A69102937D6231471B5DBB6204FE5129617082792AE468D01A3F362318\n",
	} {
		k, err := ParsePrivateKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, crypto.PubkeyToAddress(k.PublicKey))
	}

	for _, in := range []string{"", "  ", "0x", "0xzz", "0x1234"} {
		_, err := ParsePrivateKey(in)
		assert.Error(t, err, in)
	}
}
