package ethutil

import "math/big"

var (
	gweiWei  = big.NewInt(1_000_000_000)
	etherWei = big.NewInt(1_000_000_000_000_000_000)
)

// Gwei returns n gwei in wei.
func Gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), gweiWei)
}

// FormatEther renders wei as ETH rounded to 6 decimals.
func FormatEther(wei *big.Int) string {
	return ratio(wei, etherWei, 6)
}

// FormatGwei renders wei as gwei rounded to 2 decimals.
func FormatGwei(wei *big.Int) string {
	return ratio(wei, gweiWei, 2)
}

func ratio(v, unit *big.Int, prec int) string {
	if v == nil {
		return "0"
	}
	return new(big.Rat).SetFrac(v, unit).FloatString(prec)
}
