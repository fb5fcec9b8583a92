package bundlecore

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/ethutil"
)

var (
	nftContract = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherToken  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func twoItemPlan() assets.Plan {
	return assets.Plan{
		Kind: assets.NonFungible,
		Items: []assets.TransferItem{
			{To: nftContract, Data: []byte{0x01}, TokenID: big.NewInt(12)},
			{To: otherToken, Data: []byte{0x02}, TokenID: big.NewInt(45)},
		},
	}
}

func sender(t *testing.T, tx *types.Transaction) common.Address {
	t.Helper()
	from, err := types.Sender(types.LatestSignerForChainID(testChainID), tx)
	require.NoError(t, err)
	return from
}

func TestAssembleBundleLayout(t *testing.T) {
	sponsor, hacked := mustAccount(), mustAccount()
	chain := &fakeChain{
		baseFee: ethutil.Gwei(10),
		tip:     ethutil.Gwei(2),
		gas:     map[common.Address]uint64{nftContract: 50_000, otherToken: 60_000},
		nonces:  map[common.Address]uint64{sponsor.Address: 7, hacked.Address: 3},
	}
	a := NewAssembler(chain, testChainID, sponsor, hacked, nil, nil)

	b, err := a.Assemble(context.Background(), twoItemPlan(), NewFeeEscalation(30))
	require.NoError(t, err)
	require.Len(t, b.Txs, 3)

	wantMaxFee := ethutil.Gwei(22)
	wantFunding := new(big.Int).Mul(big.NewInt(110_000), wantMaxFee)
	assert.Equal(t, ethutil.Gwei(2), b.Tip)
	assert.Equal(t, wantMaxFee, b.MaxFee)
	assert.Equal(t, wantFunding, b.Funding)
	assert.Equal(t, []uint64{50_000, 60_000}, b.GasLimits)

	fund := b.Txs[0]
	assert.Equal(t, sponsor.Address, sender(t, fund))
	assert.Equal(t, hacked.Address, *fund.To())
	assert.Equal(t, wantFunding, fund.Value())
	assert.Equal(t, uint64(21_000), fund.Gas())
	assert.Equal(t, uint64(7), fund.Nonce())

	for i, tx := range b.Txs[1:] {
		assert.Equal(t, hacked.Address, sender(t, tx))
		assert.Equal(t, uint64(3+i), tx.Nonce())
		assert.Equal(t, b.GasLimits[i], tx.Gas())
		assert.Equal(t, 0, tx.Value().Sign())
		assert.Equal(t, twoItemPlan().Items[i].To, *tx.To())
		assert.Equal(t, twoItemPlan().Items[i].Data, tx.Data())
	}
	for _, tx := range b.Txs {
		assert.Equal(t, types.DynamicFeeTxType, int(tx.Type()))
		assert.Equal(t, wantMaxFee, tx.GasFeeCap())
		assert.Equal(t, ethutil.Gwei(2), tx.GasTipCap())
	}
}

func TestAssembleAppliesBoostToBothLegs(t *testing.T) {
	sponsor, hacked := mustAccount(), mustAccount()
	chain := &fakeChain{
		baseFee: ethutil.Gwei(10),
		tip:     ethutil.Gwei(2),
		gas:     map[common.Address]uint64{nftContract: 100_000},
	}
	a := NewAssembler(chain, testChainID, sponsor, hacked, ethutil.Gwei(1), nil)
	fee := NewFeeEscalation(30)
	fee.BumpFee()
	fee.BumpFee()
	fee.BumpFee()

	b, err := a.Assemble(context.Background(), nonEmptyPlan(), fee)
	require.NoError(t, err)
	assert.Equal(t, ethutil.Gwei(5), b.Tip)
	assert.Equal(t, ethutil.Gwei(25), b.MaxFee)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(100_000), ethutil.Gwei(25)), b.Funding)
}

func TestAssembleFeeFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		tip        *big.Int
		tipErr     error
		wantTip    *big.Int
		wantMaxFee *big.Int
	}{
		{"no base fee and no tip", nil, errors.New("method not found"), ethutil.Gwei(1), ethutil.Gwei(2)},
		{"no base fee, tip above fallback cap", ethutil.Gwei(5), nil, ethutil.Gwei(5), ethutil.Gwei(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &fakeChain{tip: tt.tip, tipErr: tt.tipErr, gas: map[common.Address]uint64{nftContract: 21_000}}
			a := NewAssembler(chain, testChainID, mustAccount(), mustAccount(), nil, nil)
			b, err := a.Assemble(context.Background(), nonEmptyPlan(), NewFeeEscalation(30))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTip, b.Tip)
			assert.Equal(t, tt.wantMaxFee, b.MaxFee)
		})
	}
}

func TestAssembleEmptyPlan(t *testing.T) {
	chain := &fakeChain{}
	a := NewAssembler(chain, testChainID, mustAccount(), mustAccount(), nil, nil)
	b, err := a.Assemble(context.Background(), assets.Plan{Kind: assets.Fungible}, NewFeeEscalation(30))
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Zero(t, chain.estimates)
}

func TestAssembleErrors(t *testing.T) {
	t.Run("gas estimate", func(t *testing.T) {
		chain := &fakeChain{baseFee: ethutil.Gwei(1), tip: ethutil.Gwei(1), gasErrs: []error{errors.New("execution reverted")}}
		a := NewAssembler(chain, testChainID, mustAccount(), mustAccount(), nil, nil)
		_, err := a.Assemble(context.Background(), nonEmptyPlan(), NewFeeEscalation(30))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "estimate gas for transfer 0")
		assert.Equal(t, 1, chain.estimates)
	})
	t.Run("header", func(t *testing.T) {
		chain := &fakeChain{headErr: errors.New("connection refused"), gas: map[common.Address]uint64{nftContract: 21_000}}
		a := NewAssembler(chain, testChainID, mustAccount(), mustAccount(), nil, nil)
		_, err := a.Assemble(context.Background(), nonEmptyPlan(), NewFeeEscalation(30))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latest header")
	})
}

func TestAssembleRetriesRateLimitedEstimate(t *testing.T) {
	chain := &fakeChain{
		baseFee: ethutil.Gwei(1),
		tip:     ethutil.Gwei(1),
		gas:     map[common.Address]uint64{nftContract: 40_000},
		gasErrs: []error{errors.New("429 Too Many Requests")},
	}
	a := NewAssembler(chain, testChainID, mustAccount(), mustAccount(), nil, nil)
	b, err := a.Assemble(context.Background(), nonEmptyPlan(), NewFeeEscalation(30))
	require.NoError(t, err)
	assert.Equal(t, []uint64{40_000}, b.GasLimits)
	assert.Equal(t, 2, chain.estimates)
}

func TestFeeEscalation(t *testing.T) {
	f := NewFeeEscalation(0)
	assert.Equal(t, uint64(DefaultMaxAttempts), f.Ceiling)
	assert.Equal(t, uint64(1), f.Attempts)
	assert.Zero(t, f.BoostUnits)

	f = NewFeeEscalation(2)
	f.BumpFee()
	assert.False(t, f.Exhausted())
	assert.Equal(t, ethutil.Gwei(1), f.Boost(ethutil.Gwei(1)))
	f.BumpAttempt()
	assert.True(t, f.Exhausted())
	assert.False(t, f.Beyond())
	f.BumpAttempt()
	assert.True(t, f.Beyond())
}

func TestAccountFromHex(t *testing.T) {
	a, err := AccountFromHex("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), a.Address)

	_, err = AccountFromHex("  ")
	assert.Error(t, err)
	_, err = AccountFromHex("0xzz")
	assert.Error(t, err)
}
