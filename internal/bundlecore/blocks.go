package bundlecore

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/asset-rescue/internal/logger"
)

// DefaultPollInterval matches the usual JSON-RPC provider block polling.
const DefaultPollInterval = 4 * time.Second

const maxPollErrors = 10

var errSubscriptionClosed = errors.New("head subscription closed")

// HeadSource is the part of the RPC client that reports new blocks.
// *ethclient.Client satisfies it.
type HeadSource interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// WatchBlocks emits each new block number once, in increasing order. It
// uses a head subscription when the endpoint supports one and polls
// otherwise, or after the subscription fails. The channel is closed when
// ctx ends or when polling keeps failing.
func WatchBlocks(ctx context.Context, src HeadSource, poll time.Duration, log logger.Logger) <-chan uint64 {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	out := make(chan uint64)
	go func() {
		defer close(out)
		w := &watcher{out: out, log: log}
		if err := w.subscribe(ctx, src); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Info("[blocks] head subscription unavailable (%v), polling every %s", err, poll)
		}
		w.poll(ctx, src, poll)
	}()
	return out
}

type watcher struct {
	out  chan<- uint64
	last uint64
	log  logger.Logger
}

func (w *watcher) emit(ctx context.Context, n uint64) bool {
	if n <= w.last {
		return true
	}
	select {
	case w.out <- n:
		w.last = n
		return true
	case <-ctx.Done():
		return false
	}
}

// subscribe forwards heads until the subscription fails or ctx ends.
func (w *watcher) subscribe(ctx context.Context, src HeadSource) error {
	heads := make(chan *types.Header, 16)
	sub, err := src.SubscribeNewHead(ctx, heads)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	w.log.Debug("[blocks] subscribed to new heads")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errSubscriptionClosed
			}
			return err
		case h := <-heads:
			if h == nil || h.Number == nil {
				continue
			}
			if !w.emit(ctx, h.Number.Uint64()) {
				return ctx.Err()
			}
		}
	}
}

func (w *watcher) poll(ctx context.Context, src HeadSource, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	failures := 0
	for {
		h, err := src.HeaderByNumber(ctx, nil)
		switch {
		case err != nil:
			failures++
			w.log.Warn("[blocks] head poll failed (%d/%d): %v", failures, maxPollErrors, err)
			if failures >= maxPollErrors {
				return
			}
		case h != nil && h.Number != nil:
			failures = 0
			n := h.Number.Uint64()
			from := n
			if w.last != 0 && w.last < n {
				from = w.last + 1
			}
			for b := from; b <= n; b++ {
				if !w.emit(ctx, b) {
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
