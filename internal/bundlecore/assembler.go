package bundlecore

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/ethutil"
	"github.com/ligun0805/asset-rescue/internal/logger"
	"github.com/ligun0805/asset-rescue/internal/metrics"
)

const fundingGas = 21_000

var (
	fallbackTip    = ethutil.Gwei(1)
	fallbackMaxFee = ethutil.Gwei(2)
)

// ChainClient is the read side of the public RPC the assembler needs.
// *ethclient.Client satisfies it.
type ChainClient interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Bundle is one signed, ordered set of transactions: the sponsor funding
// transaction first, then the transfers in plan order.
type Bundle struct {
	Txs          []*types.Transaction
	Funding      *big.Int
	MaxFee       *big.Int
	Tip          *big.Int
	GasLimits    []uint64
	SponsorNonce uint64
	HackedNonce  uint64
}

type Assembler struct {
	chain     ChainClient
	chainID   *big.Int
	sponsor   *Account
	hacked    *Account
	boostUnit *big.Int
	log       logger.Logger
}

func NewAssembler(chain ChainClient, chainID *big.Int, sponsor, hacked *Account, boostUnit *big.Int, log logger.Logger) *Assembler {
	if boostUnit == nil || boostUnit.Sign() <= 0 {
		boostUnit = ethutil.Gwei(1)
	}
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Assembler{
		chain:     chain,
		chainID:   new(big.Int).Set(chainID),
		sponsor:   sponsor,
		hacked:    hacked,
		boostUnit: new(big.Int).Set(boostUnit),
		log:       log,
	}
}

// Assemble prices and signs a bundle for plan. An empty plan yields nil, nil.
// Fees are taken from the network and raised by the escalation boost on
// both legs; the sponsor funds exactly Σgas × maxFee.
func (a *Assembler) Assemble(ctx context.Context, plan assets.Plan, fee *FeeEscalation) (*Bundle, error) {
	if plan.Empty() {
		return nil, nil
	}

	var (
		tip, maxFee  *big.Int
		sponsorNonce uint64
		hackedNonce  uint64
		gasLimits    = make([]uint64, len(plan.Items))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tip, maxFee, err = a.feeData(gctx)
		return err
	})
	g.Go(func() error {
		n, err := a.chain.PendingNonceAt(gctx, a.sponsor.Address)
		if err != nil {
			return fmt.Errorf("sponsor nonce: %w", err)
		}
		sponsorNonce = n
		return nil
	})
	g.Go(func() error {
		n, err := a.chain.PendingNonceAt(gctx, a.hacked.Address)
		if err != nil {
			return fmt.Errorf("compromised nonce: %w", err)
		}
		hackedNonce = n
		return nil
	})
	for i, item := range plan.Items {
		i, item := i, item
		g.Go(func() error {
			to := item.To
			gas, err := estimateGas(gctx, a.chain, ethereum.CallMsg{From: a.hacked.Address, To: &to, Data: item.Data})
			if err != nil {
				return fmt.Errorf("estimate gas for transfer %d: %w", i, err)
			}
			gasLimits[i] = gas
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	boost := fee.Boost(a.boostUnit)
	tip = new(big.Int).Add(tip, boost)
	maxFee = new(big.Int).Add(maxFee, boost)
	if tip.Cmp(maxFee) > 0 {
		maxFee = new(big.Int).Set(tip)
	}

	var totalGas uint64
	for _, gas := range gasLimits {
		totalGas += gas
	}
	funding := new(big.Int).Mul(new(big.Int).SetUint64(totalGas), maxFee)

	txs := make([]*types.Transaction, 0, len(plan.Items)+1)
	fundTx, err := a.sponsor.SignTx(dynamicFeeTx(a.chainID, sponsorNonce, a.hacked.Address, funding, fundingGas, tip, maxFee, nil), a.chainID)
	if err != nil {
		return nil, fmt.Errorf("sign funding tx: %w", err)
	}
	txs = append(txs, fundTx)
	for i, item := range plan.Items {
		tx, err := a.hacked.SignTx(dynamicFeeTx(a.chainID, hackedNonce+uint64(i), item.To, big.NewInt(0), gasLimits[i], tip, maxFee, item.Data), a.chainID)
		if err != nil {
			return nil, fmt.Errorf("sign transfer %d: %w", i, err)
		}
		txs = append(txs, tx)
	}

	fv, _ := new(big.Float).SetInt(funding).Float64()
	metrics.FundingWei.Set(fv)
	a.log.Info("[gas] transfers=%d gas=%d tip=%s gwei maxFee=%s gwei (boost=%d) funding=%s ETH nonce(sponsor=%d, compromised=%d)",
		len(plan.Items), totalGas, ethutil.FormatGwei(tip), ethutil.FormatGwei(maxFee), fee.BoostUnits, ethutil.FormatEther(funding), sponsorNonce, hackedNonce)
	for i, tx := range txs {
		a.log.Debug("  tx%d: %s", i, rawHex(tx))
	}

	return &Bundle{
		Txs:          txs,
		Funding:      funding,
		MaxFee:       maxFee,
		Tip:          tip,
		GasLimits:    gasLimits,
		SponsorNonce: sponsorNonce,
		HackedNonce:  hackedNonce,
	}, nil
}

// feeData mirrors the usual wallet fee suggestion: maxFee = 2*baseFee + tip.
// A network that reports no base fee or no tip gets the fixed fallbacks.
func (a *Assembler) feeData(ctx context.Context) (*big.Int, *big.Int, error) {
	h, err := a.chain.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("latest header: %w", err)
	}
	tip, err := a.chain.SuggestGasTipCap(ctx)
	if err != nil || tip == nil || tip.Sign() <= 0 {
		if err != nil {
			a.log.Warn("[gas] priority fee unavailable (%v), using %s gwei", err, ethutil.FormatGwei(fallbackTip))
		}
		tip = new(big.Int).Set(fallbackTip)
	}
	if h == nil || h.BaseFee == nil {
		return tip, new(big.Int).Set(fallbackMaxFee), nil
	}
	maxFee := new(big.Int).Mul(h.BaseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	return tip, maxFee, nil
}

// dynamicFeeTx builds an unsigned EIP-1559 call with the shared bundle fees.
func dynamicFeeTx(chainID *big.Int, nonce uint64, to common.Address, value *big.Int, gas uint64, tip, maxFee *big.Int, data []byte) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(chainID),
		Nonce:     nonce,
		Gas:       gas,
		GasTipCap: new(big.Int).Set(tip),
		GasFeeCap: new(big.Int).Set(maxFee),
		To:        &to,
		Value:     new(big.Int).Set(value),
		Data:      common.CopyBytes(data),
	})
}

func rawHex(tx *types.Transaction) string {
	b, _ := tx.MarshalBinary()
	return hexutil.Encode(b)
}

// estimateGas retries throttled estimates; a zero estimate is rejected.
func estimateGas(ctx context.Context, chain ChainClient, msg ethereum.CallMsg) (uint64, error) {
	gas, err := ethutil.RetryRateLimited(ctx, func(ctx context.Context) (uint64, error) {
		return chain.EstimateGas(ctx, msg)
	})
	if err != nil {
		return 0, err
	}
	if gas == 0 {
		return 0, errors.New("node estimated zero gas")
	}
	return gas, nil
}
