package assets

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind is the asset standard being rescued.
type Kind int

const (
	Fungible Kind = iota + 1
	NonFungible
)

func (k Kind) String() string {
	switch k {
	case Fungible:
		return "ERC20"
	case NonFungible:
		return "ERC721"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "erc20"/"erc721" (any case), "fungible"/"nft" and the
// menu numbers "1"/"2".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "erc20", "fungible", "token":
		return Fungible, nil
	case "2", "erc721", "nonfungible", "non-fungible", "nft":
		return NonFungible, nil
	}
	return 0, fmt.Errorf("unknown asset type %q (want erc20 or erc721)", s)
}

// ParseTokenIDs parses a comma-separated list of token identifiers, decimal
// or 0x-prefixed hex. An all-blank input yields an empty list.
func ParseTokenIDs(s string) ([]*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]*big.Int, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("token id #%d is empty", i+1)
		}
		var (
			id *big.Int
			ok bool
		)
		if strings.HasPrefix(p, "0x") || strings.HasPrefix(p, "0X") {
			id, ok = new(big.Int).SetString(p[2:], 16)
		} else {
			id, ok = new(big.Int).SetString(p, 10)
		}
		if !ok || id.Sign() < 0 {
			return nil, fmt.Errorf("token id %q is not a non-negative integer", p)
		}
		out = append(out, id)
	}
	return out, nil
}
