package flashbots

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	fb "github.com/lmittmann/flashbots"
	"github.com/lmittmann/w3"
)

// Client is a single private relay (Flashbots-compatible builder endpoint).
// Requests are signed with the auth key in the X-Flashbots-Signature header.
type Client struct {
	RelayURL string

	rpc   *w3.Client
	chain ChainReader
	poll  time.Duration
}

type SimResult struct {
	OK           bool
	FirstRevert  string
	RevertTx     common.Hash
	BundleHash   common.Hash
	TotalGasUsed uint64
	RawJSON      string
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval sets how often the chain head is checked while waiting
// for the target block.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

func NewClient(relayURL string, authKey *ecdsa.PrivateKey, chain ChainReader, opts ...Option) (*Client, error) {
	relayURL = strings.TrimSpace(relayURL)
	u, err := url.ParseRequestURI(relayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("relay url %q: want http(s) endpoint", relayURL)
	}
	if authKey == nil {
		return nil, errors.New("relay auth key is nil")
	}
	if chain == nil {
		return nil, errors.New("relay needs a chain reader to resolve inclusion")
	}
	c := &Client{
		RelayURL: relayURL,
		rpc:      fb.MustDial(relayURL, authKey),
		chain:    chain,
		poll:     time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Close() error { return c.rpc.Close() }

// SimulateBundle runs eth_callBundle for target against the latest state.
// A returned error means the call itself failed; reverts are reported in
// the result.
func (c *Client) SimulateBundle(ctx context.Context, txs []*types.Transaction, target uint64) (*SimResult, error) {
	var resp fb.CallBundleResponse
	err := c.rpc.CallCtx(ctx,
		fb.CallBundle(&fb.CallBundleRequest{
			Transactions: txs,
			BlockNumber:  new(big.Int).SetUint64(target),
		}).Returns(&resp),
	)
	if err != nil {
		return nil, fmt.Errorf("eth_callBundle: %w", err)
	}
	res := &SimResult{
		OK:           true,
		BundleHash:   resp.BundleHash,
		TotalGasUsed: resp.TotalGasUsed,
	}
	if b, err := json.Marshal(resp); err == nil {
		res.RawJSON = string(b)
	}
	for _, r := range resp.Results {
		if r.Error == nil && r.Revert == "" {
			continue
		}
		res.OK = false
		res.RevertTx = r.TxHash
		res.FirstRevert = revertReason(r)
		break
	}
	return res, nil
}

// revertReason prefers the decoded revert string over the generic error.
func revertReason(r fb.CallBundleResult) string {
	if r.Revert != "" {
		return r.Revert
	}
	return r.Error.Error()
}

// SendBundle submits txs for inclusion in exactly block target.
func (c *Client) SendBundle(ctx context.Context, txs []*types.Transaction, target uint64) (common.Hash, error) {
	var bundleHash common.Hash
	err := c.rpc.CallCtx(ctx,
		fb.SendBundle(&fb.SendBundleRequest{
			Transactions: txs,
			BlockNumber:  new(big.Int).SetUint64(target),
		}).Returns(&bundleHash),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendBundle: %w", err)
	}
	return bundleHash, nil
}
