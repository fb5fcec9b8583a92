package bundlecore

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/flashbots"
)

var testChainID = big.NewInt(11155111)

func mustAccount() *Account {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return NewAccount(key)
}

// fakeChain is an in-memory ChainClient.
type fakeChain struct {
	mu        sync.Mutex
	baseFee   *big.Int
	tip       *big.Int
	tipErr    error
	headErr   error
	gas       map[common.Address]uint64
	gasErrs   []error // consumed in order before gas is used
	nonces    map[common.Address]uint64
	estimates int
}

func (f *fakeChain) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeChain) SuggestGasTipCap(_ context.Context) (*big.Int, error) {
	return f.tip, f.tipErr
}

func (f *fakeChain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimates++
	if len(f.gasErrs) > 0 {
		err := f.gasErrs[0]
		f.gasErrs = f.gasErrs[1:]
		return 0, err
	}
	if msg.To == nil {
		return 0, errors.New("no target")
	}
	return f.gas[*msg.To], nil
}

func (f *fakeChain) PendingNonceAt(_ context.Context, a common.Address) (uint64, error) {
	return f.nonces[a], nil
}

// fakeRelay scripts one simulate/send/wait round.
type fakeRelay struct {
	sim     *flashbots.SimResult
	simErr  error
	sendErr error
	res     flashbots.Resolution
	waitErr error

	sims, sends, waits int
	target             uint64
}

func (r *fakeRelay) SimulateBundle(_ context.Context, _ []*types.Transaction, target uint64) (*flashbots.SimResult, error) {
	r.sims++
	r.target = target
	return r.sim, r.simErr
}

func (r *fakeRelay) SendBundle(_ context.Context, _ []*types.Transaction, _ uint64) (common.Hash, error) {
	r.sends++
	if r.sendErr != nil {
		return common.Hash{}, r.sendErr
	}
	return common.HexToHash("0xb0b"), nil
}

func (r *fakeRelay) WaitResolution(_ context.Context, _ []*types.Transaction, _ uint64) (flashbots.Resolution, error) {
	r.waits++
	return r.res, r.waitErr
}

// fakePlanner returns the scripted plans in order, the last one repeating.
type fakePlanner struct {
	mu    sync.Mutex
	plans []assets.Plan
	err   error
	calls int
}

func (p *fakePlanner) Plan(_ context.Context) (assets.Plan, assets.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return assets.Plan{}, assets.Summary{}, p.err
	}
	plan := p.plans[0]
	if len(p.plans) > 1 {
		p.plans = p.plans[1:]
	}
	return plan, assets.Summary{Kind: plan.Kind, Display: "1.0", Symbol: "TKN"}, nil
}

func (p *fakePlanner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeBuilder records the fee state it was asked to price with.
type fakeBuilder struct {
	mu       sync.Mutex
	err      error
	boosts   []uint64
	attempts []uint64
}

func (b *fakeBuilder) Assemble(_ context.Context, plan assets.Plan, fee *FeeEscalation) (*Bundle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boosts = append(b.boosts, fee.BoostUnits)
	b.attempts = append(b.attempts, fee.Attempts)
	if b.err != nil {
		return nil, b.err
	}
	return &Bundle{}, nil
}

func (b *fakeBuilder) seen() ([]uint64, []uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint64(nil), b.boosts...), append([]uint64(nil), b.attempts...)
}

// fakeSubmitter returns scripted results, the last one repeating. When gate
// is set every Submit waits for it.
type fakeSubmitter struct {
	mu      sync.Mutex
	results []AttemptResult
	gate    chan struct{}
	targets []uint64
}

func (s *fakeSubmitter) Submit(ctx context.Context, _ *Bundle, target uint64) AttemptResult {
	s.mu.Lock()
	s.targets = append(s.targets, target)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return AttemptResult{Outcome: TransientError, Reason: ctx.Err().Error()}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r
}

func (s *fakeSubmitter) submitted() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.targets...)
}

func nonEmptyPlan() assets.Plan {
	return assets.Plan{
		Kind:  assets.Fungible,
		Items: []assets.TransferItem{{To: common.HexToAddress("0x00000000000000000000000000000000000000aa"), Data: []byte{0xa9, 0x05, 0x9c, 0xbb}}},
	}
}
