// Package metrics defines the Prometheus metric set chainpulse-go exposes
// at /metrics and the typed methods the collector, supervisor, and
// stuck-packet monitor use to update it, matching the names and labels
// specified by the upstream metrics surface (original_source/src/metrics.rs).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps every Prometheus vector chainpulse-go publishes, registered
// against a private registry so multiple Metrics instances (e.g. in tests)
// never collide on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	ibcEffectedPackets   *prometheus.CounterVec
	ibcUneffectedPackets *prometheus.CounterVec
	ibcFrontrunCounter   *prometheus.CounterVec

	ibcStuckPackets         *prometheus.GaugeVec
	ibcStuckPacketsDetailed *prometheus.GaugeVec
	ibcPacketAgeSeconds     *prometheus.GaugeVec
	ibcPacketsNearTimeout   *prometheus.GaugeVec
	ibcPacketTimeoutSeconds *prometheus.GaugeVec

	chainpulseChains     prometheus.Gauge
	chainpulseTxs        *prometheus.CounterVec
	chainpulsePackets    *prometheus.CounterVec
	chainpulseReconnects *prometheus.CounterVec
	chainpulseTimeouts   *prometheus.CounterVec
	chainpulseErrors     *prometheus.CounterVec
}

// New builds a Metrics instance and registers every vector against a fresh
// private registry, returned for the HTTP /metrics handler to gather.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ibcEffectedPackets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ibc_effected_packets",
			Help: "The number of IBC packets that have been relayed and were effected",
		}, []string{"chain_id", "src_channel", "src_port", "dst_channel", "dst_port", "signer", "memo"}),

		ibcUneffectedPackets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ibc_uneffected_packets",
			Help: "The number of IBC packets that were relayed but not effected",
		}, []string{"chain_id", "src_channel", "src_port", "dst_channel", "dst_port", "signer", "memo"}),

		ibcFrontrunCounter: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ibc_frontrun_counter",
			Help: "The number of times a signer gets frontrun by the original signer",
		}, []string{"chain_id", "src_channel", "src_port", "dst_channel", "dst_port", "signer", "frontrunned_by", "memo", "effected_memo"}),

		ibcStuckPackets: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibc_stuck_packets",
			Help: "The number of packets stuck on an IBC channel",
		}, []string{"src_chain", "dst_chain", "src_channel"}),

		ibcStuckPacketsDetailed: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibc_stuck_packets_detailed",
			Help: "Detailed stuck packet tracking with user-data presence",
		}, []string{"src_chain", "dst_chain", "src_channel", "dst_channel", "has_user_data"}),

		ibcPacketAgeSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibc_packet_age_seconds",
			Help: "Age in seconds of the oldest unrelayed packet on a channel",
		}, []string{"src_chain", "dst_chain", "channel"}),

		ibcPacketsNearTimeout: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibc_packets_near_timeout",
			Help: "The number of unrelayed packets approaching or past their relay deadline",
		}, []string{"src_chain", "dst_chain", "src_channel", "dst_channel", "timeout_type"}),

		ibcPacketTimeoutSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibc_packet_timeout_seconds",
			Help: "Seconds remaining until the soonest unrelayed packet on a channel times out",
		}, []string{"src_chain", "dst_chain", "src_channel", "dst_channel"}),

		chainpulseChains: f.NewGauge(prometheus.GaugeOpts{
			Name: "chainpulse_chains",
			Help: "The number of chains being monitored",
		}),

		chainpulseTxs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpulse_txs",
			Help: "The number of txs processed",
		}, []string{"chain_id"}),

		chainpulsePackets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpulse_packets",
			Help: "The number of packets processed",
		}, []string{"chain_id"}),

		chainpulseReconnects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpulse_reconnects",
			Help: "The number of times we had to reconnect to the WebSocket",
		}, []string{"chain_id"}),

		chainpulseTimeouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpulse_timeouts",
			Help: "The number of times the WebSocket connection timed out",
		}, []string{"chain_id"}),

		chainpulseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainpulse_errors",
			Help: "The number of times an error was encountered",
		}, []string{"chain_id"}),
	}
}

// Registry returns the private registry every vector above was registered
// against, for the /metrics HTTP handler to gather from.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IBCEffectedPackets records a packet observation that was the first
// (winning) submission on this chain.
func (m *Metrics) IBCEffectedPackets(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, memo string) {
	m.ibcEffectedPackets.WithLabelValues(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, memo).Inc()
}

// IBCUneffectedPackets records a packet observation that lost the race to
// an earlier submission.
func (m *Metrics) IBCUneffectedPackets(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, memo string) {
	m.ibcUneffectedPackets.WithLabelValues(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, memo).Inc()
}

// IBCFrontrunCounter records an uneffected submission against the signer
// of the submission that effected the packet (frontrunnedBy).
func (m *Metrics) IBCFrontrunCounter(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, frontrunnedBy, memo, effectedMemo string) {
	m.ibcFrontrunCounter.WithLabelValues(chainID, srcChannel, srcPort, dstChannel, dstPort, signer, frontrunnedBy, memo, effectedMemo).Inc()
}

// IBCStuckPackets sets the legacy three-label stuck-packet gauge.
func (m *Metrics) IBCStuckPackets(srcChain, dstChain, srcChannel string, value int64) {
	m.ibcStuckPackets.WithLabelValues(srcChain, dstChain, srcChannel).Set(float64(value))
}

// IBCStuckPacketsDetailed sets the five-label stuck-packet gauge, split by
// whether any row in the group has a non-null sender.
func (m *Metrics) IBCStuckPacketsDetailed(srcChain, dstChain, srcChannel, dstChannel string, hasUserData bool, value int64) {
	m.ibcStuckPacketsDetailed.WithLabelValues(srcChain, dstChain, srcChannel, dstChannel, boolLabel(hasUserData)).Set(float64(value))
}

// IBCPacketAgeSeconds sets the oldest-unrelayed-packet age for a channel.
func (m *Metrics) IBCPacketAgeSeconds(srcChain, dstChain, channel string, ageSeconds float64) {
	m.ibcPacketAgeSeconds.WithLabelValues(srcChain, dstChain, channel).Set(ageSeconds)
}

// IBCPacketsNearTimeout sets the count of packets within the near-timeout
// window ("expiring") or already past it ("expired") for a channel pair.
func (m *Metrics) IBCPacketsNearTimeout(srcChain, dstChain, srcChannel, dstChannel, timeoutType string, count int64) {
	m.ibcPacketsNearTimeout.WithLabelValues(srcChain, dstChain, srcChannel, dstChannel, timeoutType).Set(float64(count))
}

// IBCPacketTimeoutSeconds sets the seconds remaining until the soonest
// unrelayed packet on a channel pair times out.
func (m *Metrics) IBCPacketTimeoutSeconds(srcChain, dstChain, srcChannel, dstChannel string, seconds float64) {
	m.ibcPacketTimeoutSeconds.WithLabelValues(srcChain, dstChain, srcChannel, dstChannel).Set(seconds)
}

// ChainpulseChains sets the total number of configured chains.
func (m *Metrics) ChainpulseChains(count int) {
	m.chainpulseChains.Set(float64(count))
}

// ChainpulseTxs increments the per-chain transaction counter.
func (m *Metrics) ChainpulseTxs(chainID string) {
	m.chainpulseTxs.WithLabelValues(chainID).Inc()
}

// ChainpulsePackets increments the per-chain packet counter.
func (m *Metrics) ChainpulsePackets(chainID string) {
	m.chainpulsePackets.WithLabelValues(chainID).Inc()
}

// ChainpulseReconnects increments the per-chain reconnect counter.
func (m *Metrics) ChainpulseReconnects(chainID string) {
	m.chainpulseReconnects.WithLabelValues(chainID).Inc()
}

// ChainpulseTimeouts increments the per-chain subscription-timeout counter.
func (m *Metrics) ChainpulseTimeouts(chainID string) {
	m.chainpulseTimeouts.WithLabelValues(chainID).Inc()
}

// ChainpulseErrors increments the per-chain error counter.
func (m *Metrics) ChainpulseErrors(chainID string) {
	m.chainpulseErrors.WithLabelValues(chainID).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
