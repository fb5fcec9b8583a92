package bundlecore

import "math/big"

const DefaultMaxAttempts = 30

// FeeEscalation is the retry state carried across blocks. Neither counter
// ever decreases during a run.
type FeeEscalation struct {
	// BoostUnits is added, times the boost unit, to both fee legs.
	BoostUnits uint64
	// Attempts starts at 1 and advances only when a bundle was sent but not included.
	Attempts uint64
	Ceiling  uint64
}

func NewFeeEscalation(ceiling uint64) *FeeEscalation {
	if ceiling == 0 {
		ceiling = DefaultMaxAttempts
	}
	return &FeeEscalation{BoostUnits: 0, Attempts: 1, Ceiling: ceiling}
}

func (f *FeeEscalation) BumpFee() { f.BoostUnits++ }

func (f *FeeEscalation) BumpAttempt() { f.Attempts++ }

// Exhausted reports that no further attempt may start.
func (f *FeeEscalation) Exhausted() bool { return f.Attempts >= f.Ceiling }

// Beyond reports that the ceiling was already passed; notifications are ignored.
func (f *FeeEscalation) Beyond() bool { return f.Attempts > f.Ceiling }

// Boost returns BoostUnits * unit in wei.
func (f *FeeEscalation) Boost(unit *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(f.BoostUnits), unit)
}
