package bundlecore

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/asset-rescue/internal/flashbots"
	"github.com/ligun0805/asset-rescue/internal/logger"
)

// Relay is a private bundle relay. *flashbots.Client satisfies it.
type Relay interface {
	SimulateBundle(ctx context.Context, txs []*types.Transaction, target uint64) (*flashbots.SimResult, error)
	SendBundle(ctx context.Context, txs []*types.Transaction, target uint64) (common.Hash, error)
	WaitResolution(ctx context.Context, txs []*types.Transaction, target uint64) (flashbots.Resolution, error)
}

// Outcome classifies one attempt and decides the next step of the loop.
type Outcome int

const (
	Success Outcome = iota
	SimulationFailed
	NotIncluded
	TransientError
	// Skipped means nothing was built: empty plan or planning error.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SimulationFailed:
		return "simulation_failed"
	case NotIncluded:
		return "not_included"
	case TransientError:
		return "transient_error"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type AttemptResult struct {
	Outcome    Outcome
	Reason     string
	BundleHash common.Hash
}

type Pipeline struct {
	relay Relay
	log   logger.Logger
}

func NewPipeline(relay Relay, log logger.Logger) *Pipeline {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Pipeline{relay: relay, log: log}
}

// Submit simulates b against target, sends it only if the simulation is
// clean, then waits for the target block to decide inclusion.
func (p *Pipeline) Submit(ctx context.Context, b *Bundle, target uint64) AttemptResult {
	sim, err := p.relay.SimulateBundle(ctx, b.Txs, target)
	if err != nil {
		return AttemptResult{Outcome: SimulationFailed, Reason: err.Error()}
	}
	if sim == nil {
		sim = &flashbots.SimResult{OK: true}
	}
	if !sim.OK {
		reason := sim.FirstRevert
		if sim.RevertTx != (common.Hash{}) {
			reason = fmt.Sprintf("%s (tx %s)", reason, sim.RevertTx.Hex())
		}
		return AttemptResult{Outcome: SimulationFailed, Reason: reason}
	}
	p.log.Debug("[sim] ok block=%d gasUsed=%d", target, sim.TotalGasUsed)

	bundleHash, err := p.relay.SendBundle(ctx, b.Txs, target)
	if err != nil {
		return AttemptResult{Outcome: TransientError, Reason: err.Error()}
	}
	p.log.Info("[send] bundle %s submitted for block %d", bundleHash.Hex(), target)

	res, err := p.relay.WaitResolution(ctx, b.Txs, target)
	if err != nil {
		return AttemptResult{Outcome: TransientError, Reason: fmt.Sprintf("wait: %v", err), BundleHash: bundleHash}
	}
	if res == flashbots.Included {
		return AttemptResult{Outcome: Success, Reason: res.String(), BundleHash: bundleHash}
	}
	return AttemptResult{Outcome: NotIncluded, Reason: res.String(), BundleHash: bundleHash}
}
