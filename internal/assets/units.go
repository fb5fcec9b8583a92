package assets

import (
	"math/big"
	"strings"
)

// FormatUnits renders v scaled down by 10^decimals. The fractional part is
// trimmed of trailing zeros but always keeps one digit, so 1_000_000 with 6
// decimals is "1.0".
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0.0"
	}
	neg := v.Sign() < 0
	s := new(big.Int).Abs(v).String()
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	intPart := s[:len(s)-d]
	frac := strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		frac = "0"
	}
	out := intPart + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
