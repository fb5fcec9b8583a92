package bundlecore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/asset-rescue/internal/assets"
	"github.com/ligun0805/asset-rescue/internal/logger"
	"github.com/ligun0805/asset-rescue/internal/metrics"
)

var (
	ErrMaxAttempts       = errors.New("max attempts reached")
	ErrBlockSourceClosed = errors.New("block source closed")
)

// Planner produces the current transfer plan. *assets.Planner satisfies it.
type Planner interface {
	Plan(ctx context.Context) (assets.Plan, assets.Summary, error)
}

// Builder prices and signs a bundle. *Assembler satisfies it.
type Builder interface {
	Assemble(ctx context.Context, plan assets.Plan, fee *FeeEscalation) (*Bundle, error)
}

// Submitter runs a bundle through the relay. *Pipeline satisfies it.
type Submitter interface {
	Submit(ctx context.Context, b *Bundle, target uint64) AttemptResult
}

// RescueContext is everything one rescue run owns. Fee is only touched by
// the attempt holding the monitor's guard.
type RescueContext struct {
	Planner   Planner
	Assembler Builder
	Pipeline  Submitter
	Fee       *FeeEscalation
	Log       logger.Logger
}

// Result of a finished run.
type Result struct {
	Included   bool
	Block      uint64
	BundleHash common.Hash
	Attempts   uint64
	BoostUnits uint64
}

type verdict struct {
	res Result
	err error
}

// Monitor consumes block numbers and runs at most one attempt at a time.
// Blocks arriving while an attempt is in flight are dropped.
type Monitor struct {
	rc   RescueContext
	busy atomic.Bool
}

func NewMonitor(rc RescueContext) *Monitor {
	if rc.Fee == nil {
		rc.Fee = NewFeeEscalation(DefaultMaxAttempts)
	}
	if rc.Log == nil {
		rc.Log = &logger.EmptyLogger{}
	}
	return &Monitor{rc: rc}
}

// Run returns on inclusion, on the attempt ceiling (ErrMaxAttempts), when
// blocks is closed (ErrBlockSourceClosed) or when ctx ends. It never
// returns while an attempt is still running.
func (m *Monitor) Run(ctx context.Context, blocks <-chan uint64) (Result, error) {
	finished := make(chan verdict, 1)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case v := <-finished:
			return v.res, v.err
		case n, ok := <-blocks:
			if !ok {
				wg.Wait()
				select {
				case v := <-finished:
					return v.res, v.err
				default:
				}
				return Result{}, ErrBlockSourceClosed
			}
			if !m.busy.CompareAndSwap(false, true) {
				metrics.BlocksDropped.Inc()
				m.rc.Log.Debug("[block %d] attempt in flight, dropped", n)
				continue
			}
			wg.Add(1)
			go func(block uint64) {
				defer wg.Done()
				v, done := m.attempt(ctx, block)
				if done {
					// guard stays held so nothing starts after a terminal verdict
					finished <- v
					return
				}
				m.busy.Store(false)
			}(n)
		}
	}
}

// attempt runs one block's worth of work under the guard and applies the
// fee-state mutation for its outcome. done reports a terminal verdict.
func (m *Monitor) attempt(ctx context.Context, block uint64) (verdict, bool) {
	fee := m.rc.Fee
	log := m.rc.Log
	if fee.Beyond() {
		return verdict{}, false
	}
	if fee.Exhausted() {
		log.Error("[abort] attempt %d reached the ceiling of %d, giving up", fee.Attempts, fee.Ceiling)
		return verdict{err: fmt.Errorf("%w (%d/%d)", ErrMaxAttempts, fee.Attempts, fee.Ceiling)}, true
	}

	target := block + 1
	start := time.Now()
	ar := m.run(ctx, target)
	metrics.Attempts.WithLabelValues(ar.Outcome.String()).Inc()
	if ar.Outcome != Skipped {
		metrics.AttemptDuration.Observe(time.Since(start).Seconds())
	}

	tag := fmt.Sprintf("[attempt %d/%d] block=%d", fee.Attempts, fee.Ceiling, target)
	switch ar.Outcome {
	case Success:
		log.Notice("%s included, bundle %s", tag, ar.BundleHash.Hex())
		return verdict{res: Result{
			Included:   true,
			Block:      target,
			BundleHash: ar.BundleHash,
			Attempts:   fee.Attempts,
			BoostUnits: fee.BoostUnits,
		}}, true
	case SimulationFailed:
		fee.BumpFee()
		log.Warn("%s simulation failed: %s; fee boost -> %d", tag, ar.Reason, fee.BoostUnits)
	case NotIncluded:
		fee.BumpFee()
		fee.BumpAttempt()
		log.Warn("%s not included (%s); fee boost -> %d, next attempt %d", tag, ar.Reason, fee.BoostUnits, fee.Attempts)
	case TransientError:
		log.Warn("%s transient error: %s; retrying on next block", tag, ar.Reason)
	case Skipped:
		log.Info("[idle] block=%d %s", target, ar.Reason)
	}
	metrics.FeeBoostUnits.Set(float64(fee.BoostUnits))
	metrics.AttemptCount.Set(float64(fee.Attempts))
	return verdict{}, false
}

func (m *Monitor) run(ctx context.Context, target uint64) AttemptResult {
	plan, summary, err := m.rc.Planner.Plan(ctx)
	if err != nil {
		return AttemptResult{Outcome: Skipped, Reason: fmt.Sprintf("plan: %v", err)}
	}
	if plan.Empty() {
		return AttemptResult{Outcome: Skipped, Reason: "nothing to transfer"}
	}
	m.rc.Log.Info("[plan] block=%d moving %s", target, summary)

	b, err := m.rc.Assembler.Assemble(ctx, plan, m.rc.Fee)
	if err != nil {
		return AttemptResult{Outcome: TransientError, Reason: fmt.Sprintf("assemble: %v", err)}
	}
	if b == nil {
		return AttemptResult{Outcome: Skipped, Reason: "nothing to transfer"}
	}
	return m.rc.Pipeline.Submit(ctx, b, target)
}
