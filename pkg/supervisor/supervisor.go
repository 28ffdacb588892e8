// Package supervisor runs one Collector per configured chain forever,
// restarting it after every outcome — error or not — with a fixed backoff.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cordtus/chainpulse-go/pkg/collector"
	"github.com/cordtus/chainpulse-go/pkg/config"
	"github.com/cordtus/chainpulse-go/pkg/metrics"
	"github.com/cordtus/chainpulse-go/pkg/store"
)

const restartBackoff = 5 * time.Second

// collectorRunner is the subset of *collector.Collector the supervisor
// depends on, so tests can substitute a fake without a real chain endpoint.
type collectorRunner interface {
	Run(ctx context.Context) (collector.Outcome, error)
}

// Supervisor owns one restart loop per chain. It never terminates
// voluntarily; a chain's loop stops only when ctx is cancelled or the
// collector returns a context cancellation or deadline error.
type Supervisor struct {
	chains    map[string]config.ChainConfig
	metrics   *metrics.Metrics
	newRunner func(config.ChainConfig) collectorRunner
	wg        sync.WaitGroup
}

// New returns a Supervisor for every chain in chains.
func New(chains map[string]config.ChainConfig, st *store.Store, m *metrics.Metrics) *Supervisor {
	return &Supervisor{
		chains:  chains,
		metrics: m,
		newRunner: func(chain config.ChainConfig) collectorRunner {
			return collector.New(chain, st, m)
		},
	}
}

// Run starts one restart loop per chain and blocks until ctx is cancelled
// and every loop has exited.
func (s *Supervisor) Run(ctx context.Context) {
	s.metrics.ChainpulseChains(len(s.chains))

	for chainID, chain := range s.chains {
		s.wg.Add(1)
		go s.runChain(ctx, chainID, chain)
	}
	s.wg.Wait()
}

// runChain loops a single chain's collector forever: dial, subscribe,
// process until the collector returns, log the outcome, bump metrics,
// sleep, and restart.
func (s *Supervisor) runChain(ctx context.Context, chainID string, chain config.ChainConfig) {
	defer s.wg.Done()

	log := slog.With("chain_id", chainID)
	c := s.newRunner(chain)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcome, err := c.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			s.metrics.ChainpulseErrors(chainID)
			log.Error("collector error", "error", err)
		} else {
			log.Warn("collector outcome", "outcome", outcome)
		}

		s.metrics.ChainpulseReconnects(chainID)

		log.Info("reconnecting", "after", restartBackoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}
	}
}
