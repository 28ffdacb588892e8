// Package monitor runs the periodic stuck-packet sweep: a fixed-tick scan
// over the store's uneffected packets that updates the stuck and
// near-timeout Prometheus gauges, matching original_source/src/status.rs's
// intent (the file itself is a stub; this package is the authoritative
// redesign per spec.md §4.7/§9).
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cordtus/chainpulse-go/pkg/metrics"
	"github.com/cordtus/chainpulse-go/pkg/store"
)

const (
	defaultTickInterval   = 60 * time.Second
	defaultStuckThreshold = 900 * time.Second
	defaultNearTimeout    = 60 * time.Minute
)

// storeReader is the subset of *store.Store the monitor depends on, so
// tests can substitute a fake.
type storeReader interface {
	StuckGroups(minAgeSeconds int64) ([]store.StuckGroup, error)
	TimeoutGroups(nearWindowSeconds int64) ([]store.TimeoutGroup, error)
}

// Monitor periodically sweeps the store for stuck and near-timeout
// packets and publishes the results as gauges.
type Monitor struct {
	store   storeReader
	metrics *metrics.Metrics

	tickInterval   time.Duration
	stuckThreshold time.Duration
	nearTimeout    time.Duration

	// scanTimeouts enables the optional near-timeout gauge sweep; disabled
	// by default since not every chain's packets carry timeout fields.
	scanTimeouts bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithTickInterval overrides the default 60s sweep interval.
func WithTickInterval(d time.Duration) Option { return func(m *Monitor) { m.tickInterval = d } }

// WithStuckThreshold overrides the default 900s stuck-age threshold.
func WithStuckThreshold(d time.Duration) Option { return func(m *Monitor) { m.stuckThreshold = d } }

// WithNearTimeoutWindow overrides the default 60m near-timeout window.
func WithNearTimeoutWindow(d time.Duration) Option { return func(m *Monitor) { m.nearTimeout = d } }

// WithTimeoutScan enables the optional expiring/expired gauge sweep.
func WithTimeoutScan(enabled bool) Option { return func(m *Monitor) { m.scanTimeouts = enabled } }

// New returns a Monitor reading from st and publishing to m.
func New(st *store.Store, m *metrics.Metrics, opts ...Option) *Monitor {
	mon := &Monitor{
		store:          st,
		metrics:        m,
		tickInterval:   defaultTickInterval,
		stuckThreshold: defaultStuckThreshold,
		nearTimeout:    defaultNearTimeout,
	}
	for _, opt := range opts {
		opt(mon)
	}
	return mon
}

// Run ticks forever until ctx is cancelled, running one sweep per tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one pass of the stuck and (optionally) near-timeout scans.
// Failures are logged and do not stop the ticker; the next tick tries again.
// Exported so callers can force an immediate pass (e.g. metrics.populate_on_start).
func (m *Monitor) Sweep() {
	if err := m.sweepStuck(); err != nil {
		slog.Error("stuck packet sweep failed", "error", err)
	}
	if m.scanTimeouts {
		if err := m.sweepTimeouts(); err != nil {
			slog.Error("timeout sweep failed", "error", err)
		}
	}
}

func (m *Monitor) sweepStuck() error {
	groups, err := m.store.StuckGroups(int64(m.stuckThreshold.Seconds()))
	if err != nil {
		return err
	}

	for _, g := range groups {
		m.metrics.IBCStuckPackets(g.Chain, g.Chain, g.SrcChannel, g.Count)
		m.metrics.IBCStuckPacketsDetailed(g.Chain, g.Chain, g.SrcChannel, g.DstChannel, g.HasUserData, g.Count)
		m.metrics.IBCPacketAgeSeconds(g.Chain, g.Chain, g.SrcChannel, float64(g.OldestAgeSec))
	}
	return nil
}

func (m *Monitor) sweepTimeouts() error {
	groups, err := m.store.TimeoutGroups(int64(m.nearTimeout.Seconds()))
	if err != nil {
		return err
	}

	for _, g := range groups {
		if g.ExpiringCount > 0 {
			m.metrics.IBCPacketsNearTimeout(g.Chain, g.Chain, g.SrcChannel, g.DstChannel, "expiring", g.ExpiringCount)
		}
		if g.ExpiredCount > 0 {
			m.metrics.IBCPacketsNearTimeout(g.Chain, g.Chain, g.SrcChannel, g.DstChannel, "expired", g.ExpiredCount)
		}
		if g.SoonestRemaining > 0 {
			m.metrics.IBCPacketTimeoutSeconds(g.Chain, g.Chain, g.SrcChannel, g.DstChannel, float64(g.SoonestRemaining))
		}
	}
	return nil
}
