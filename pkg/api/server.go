// Package api exposes the read-only JSON query surface described by
// spec.md §6, ported from original_source/src/metrics.rs's axum router
// onto gin-gonic/gin, the teacher's HTTP framework.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cordtus/chainpulse-go/pkg/metrics"
	"github.com/cordtus/chainpulse-go/pkg/store"
)

// apiVersion is embedded in every JSON response per spec.md §6.
const apiVersion = "1.0"

// queryStore is the subset of *store.Store the HTTP layer reads from.
type queryStore interface {
	PacketsByUser(address, role string, limit, offset int64) ([]store.PacketInfo, error)
	StuckPackets(minAgeSeconds, limit int64) ([]store.PacketInfo, error)
	PacketByIdentity(chain, srcChannel string, sequence int64) (*store.PacketInfo, error)
	ChannelCongestion() ([]store.ChannelCongestion, error)
	ExpiringPackets(withinSeconds, limit int64) ([]store.PacketInfo, error)
	ExpiredPackets(limit int64) ([]store.PacketInfo, error)
	DuplicatePackets(limit int64) ([]store.DuplicatePacket, error)
}

// Server wires the query store and metrics registry into a gin router.
type Server struct {
	store   queryStore
	metrics *metrics.Metrics
}

// New returns a Server ready to have its routes registered.
func New(st *store.Store, m *metrics.Metrics) *Server {
	return &Server{store: st, metrics: m}
}

// Router builds the gin engine with every route from spec.md §6
// registered, in gin's release mode to match a production daemon.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", s.handleMetrics())
	r.GET("/api/v1/packets/by-user", s.handlePacketsByUser)
	r.GET("/api/v1/packets/stuck", s.handleStuckPackets)
	r.GET("/api/v1/packets/expiring", s.handleExpiringPackets)
	r.GET("/api/v1/packets/expired", s.handleExpiredPackets)
	r.GET("/api/v1/packets/duplicates", s.handleDuplicatePackets)
	r.GET("/api/v1/packets/:chain/:channel/:sequence", s.handlePacketDetails)
	r.GET("/api/v1/channels/congestion", s.handleChannelCongestion)

	return r
}

func (s *Server) handleMetrics() gin.HandlerFunc {
	h := promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

func withAPIVersion(body gin.H) gin.H {
	body["api_version"] = apiVersion
	return body
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message, "api_version": apiVersion})
}
