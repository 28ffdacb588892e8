package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit         = int64(100)
	defaultMinAgeSeconds = int64(900)
	defaultExpiryMinutes = int64(60)
	defaultDuplicateCap  = int64(20)
)

// handlePacketsByUser serves GET /api/v1/packets/by-user.
func (s *Server) handlePacketsByUser(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		writeError(c, http.StatusBadRequest, "address is required")
		return
	}

	role := c.DefaultQuery("role", "both")
	if role != "sender" && role != "receiver" && role != "both" {
		writeError(c, http.StatusBadRequest, "role must be sender, receiver, or both")
		return
	}

	limit := queryInt(c, "limit", defaultLimit)
	offset := queryInt(c, "offset", 0)

	packets, err := s.store.PacketsByUser(address, role, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{
		"packets": packets,
		"total":   len(packets),
	}))
}

// handleStuckPackets serves GET /api/v1/packets/stuck.
func (s *Server) handleStuckPackets(c *gin.Context) {
	minAge := queryInt(c, "min_age_seconds", defaultMinAgeSeconds)
	limit := queryInt(c, "limit", defaultLimit)

	packets, err := s.store.StuckPackets(minAge, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{
		"packets": packets,
		"total":   len(packets),
	}))
}

// handlePacketDetails serves GET /api/v1/packets/:chain/:channel/:sequence.
func (s *Server) handlePacketDetails(c *gin.Context) {
	chain := c.Param("chain")
	channel := c.Param("channel")
	sequence, err := strconv.ParseInt(c.Param("sequence"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "sequence must be an integer")
		return
	}

	packet, err := s.store.PacketByIdentity(chain, channel, sequence)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if packet == nil {
		writeError(c, http.StatusNotFound, "packet not found")
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{"packet": packet}))
}

// handleChannelCongestion serves GET /api/v1/channels/congestion.
func (s *Server) handleChannelCongestion(c *gin.Context) {
	channels, err := s.store.ChannelCongestion()
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{"channels": channels}))
}

// handleExpiringPackets serves GET /api/v1/packets/expiring.
func (s *Server) handleExpiringPackets(c *gin.Context) {
	minutes := queryInt(c, "minutes", defaultExpiryMinutes)
	limit := queryInt(c, "limit", defaultLimit)

	packets, err := s.store.ExpiringPackets(minutes*60, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{
		"packets": packets,
		"total":   len(packets),
	}))
}

// handleExpiredPackets serves GET /api/v1/packets/expired.
func (s *Server) handleExpiredPackets(c *gin.Context) {
	limit := queryInt(c, "limit", defaultLimit)

	packets, err := s.store.ExpiredPackets(limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{
		"packets": packets,
		"total":   len(packets),
	}))
}

// handleDuplicatePackets serves GET /api/v1/packets/duplicates, capped at
// 20 groups per spec.md §6.
func (s *Server) handleDuplicatePackets(c *gin.Context) {
	duplicates, err := s.store.DuplicatePackets(defaultDuplicateCap)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, withAPIVersion(gin.H{"duplicates": duplicates}))
}

// queryInt parses an int64 query parameter, falling back to def when
// absent or malformed.
func queryInt(c *gin.Context, key string, def int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
