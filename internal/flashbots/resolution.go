package flashbots

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Resolution is the verdict on a bundle once its target block exists.
type Resolution int

const (
	BlockPassedWithoutInclusion Resolution = iota
	Included
	AccountNonceTooHigh
)

func (r Resolution) String() string {
	switch r {
	case Included:
		return "included"
	case BlockPassedWithoutInclusion:
		return "block passed without inclusion"
	case AccountNonceTooHigh:
		return "account nonce too high"
	}
	return fmt.Sprintf("Resolution(%d)", int(r))
}

// ChainReader is what resolution needs from the public RPC.
// *ethclient.Client satisfies it.
type ChainReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// maxHeadErrors bounds consecutive head lookups failing while waiting.
const maxHeadErrors = 10

// WaitResolution blocks until the chain reaches target and decides whether
// all txs landed in it. When they did not, a sender whose nonce at target
// already moved past its bundle nonce means the bundle can never land.
func (c *Client) WaitResolution(ctx context.Context, txs []*types.Transaction, target uint64) (Resolution, error) {
	if err := c.waitForBlock(ctx, target); err != nil {
		return BlockPassedWithoutInclusion, err
	}

	included, err := c.allIncluded(ctx, txs, target)
	if err != nil {
		return BlockPassedWithoutInclusion, err
	}
	if included {
		return Included, nil
	}

	bundleNonces := make(map[common.Address]uint64)
	for _, tx := range txs {
		from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
		if err != nil {
			return BlockPassedWithoutInclusion, fmt.Errorf("recover sender of %s: %w", tx.Hash().Hex(), err)
		}
		if n, ok := bundleNonces[from]; !ok || tx.Nonce() < n {
			bundleNonces[from] = tx.Nonce()
		}
	}
	at := new(big.Int).SetUint64(target)
	for from, n := range bundleNonces {
		onchain, err := c.chain.NonceAt(ctx, from, at)
		if err != nil {
			return BlockPassedWithoutInclusion, fmt.Errorf("nonce(%s): %w", from.Hex(), err)
		}
		if onchain > n {
			return AccountNonceTooHigh, nil
		}
	}
	return BlockPassedWithoutInclusion, nil
}

func (c *Client) waitForBlock(ctx context.Context, target uint64) error {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	failures := 0
	for {
		h, err := c.chain.HeaderByNumber(ctx, nil)
		switch {
		case err != nil:
			failures++
			if failures >= maxHeadErrors {
				return fmt.Errorf("head: %w", err)
			}
		case h != nil && h.Number != nil && h.Number.Uint64() >= target:
			return nil
		default:
			failures = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) allIncluded(ctx context.Context, txs []*types.Transaction, target uint64) (bool, error) {
	for _, tx := range txs {
		rcpt, err := c.chain.TransactionReceipt(ctx, tx.Hash())
		if errors.Is(err, ethereum.NotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("receipt %s: %w", tx.Hash().Hex(), err)
		}
		if rcpt == nil || rcpt.BlockNumber == nil || rcpt.BlockNumber.Uint64() != target {
			return false, nil
		}
	}
	return true, nil
}
