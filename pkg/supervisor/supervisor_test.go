package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordtus/chainpulse-go/pkg/collector"
	"github.com/cordtus/chainpulse-go/pkg/config"
	"github.com/cordtus/chainpulse-go/pkg/metrics"
)

type fakeRunner struct {
	runs    atomic.Int32
	outcome collector.Outcome
	err     error
}

func (f *fakeRunner) Run(ctx context.Context) (collector.Outcome, error) {
	f.runs.Add(1)
	return f.outcome, f.err
}

func TestRunChainStopsOnContextCancel(t *testing.T) {
	m := metrics.New()
	s := New(map[string]config.ChainConfig{"osmosis-1": {ChainID: "osmosis-1"}}, nil, m)

	fr := &fakeRunner{outcome: collector.OutcomeBlockElapsed}
	s.newRunner = func(config.ChainConfig) collectorRunner { return fr }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.runChain(ctx, "osmosis-1", config.ChainConfig{ChainID: "osmosis-1"})
		close(done)
	}()

	// Let the first iteration return immediately and block on the 5s
	// restart backoff, then cancel during that wait.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runChain did not stop promptly after context cancellation")
	}

	assert.GreaterOrEqual(t, fr.runs.Load(), int32(1))
}

func TestRunChainStopsOnContextCanceledError(t *testing.T) {
	m := metrics.New()
	s := New(map[string]config.ChainConfig{"osmosis-1": {ChainID: "osmosis-1"}}, nil, m)

	fr := &fakeRunner{err: context.Canceled}
	s.newRunner = func(config.ChainConfig) collectorRunner { return fr }

	done := make(chan struct{})
	go func() {
		s.runChain(context.Background(), "osmosis-1", config.ChainConfig{ChainID: "osmosis-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runChain did not return immediately on a context.Canceled error")
	}
	assert.Equal(t, int32(1), fr.runs.Load())
}

func TestRunChainBumpsErrorMetricOnGenuineFailure(t *testing.T) {
	m := metrics.New()
	s := New(map[string]config.ChainConfig{"osmosis-1": {ChainID: "osmosis-1"}}, nil, m)

	fr := &fakeRunner{err: errors.New("dial failed")}
	s.newRunner = func(config.ChainConfig) collectorRunner { return fr }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.runChain(ctx, "osmosis-1", config.ChainConfig{ChainID: "osmosis-1"})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var sawErrors bool
	for _, f := range families {
		if f.GetName() == "chainpulse_errors" {
			sawErrors = true
		}
	}
	assert.True(t, sawErrors)
}
