package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/netsentry-labs/netsentry/pkg/detect"
)

const recentEventsLimit = 100

func (s *Server) registerDetectionRoutes(r *gin.Engine) {
	r.POST("/detect", s.handleDetect)
	r.GET("/detect", s.handleRecentEvents)
}

type detectRequest struct {
	DeviceID           *string  `json:"device_id" binding:"required"`
	CPUUsage           *float64 `json:"cpu_usage" binding:"required"`
	MemoryUsage        *float64 `json:"memory_usage" binding:"required"`
	NetworkTraffic     *float64 `json:"network_traffic" binding:"required"`
	FailedAuthAttempts *float64 `json:"failed_auth_attempts" binding:"required"`
}

// handleDetect is the ingestion entry point: persist the sample, evaluate
// the active rules, persist any findings, and flag the device. The sample
// write commits first; later failures leave it in place (the next sample is
// evaluated normally, no compensating delete).
func (s *Server) handleDetect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing required field", s.logger)
		return
	}
	if *req.CPUUsage < 0 || *req.MemoryUsage < 0 || *req.NetworkTraffic < 0 || *req.FailedAuthAttempts < 0 {
		respondError(c, http.StatusBadRequest, "metric fields must be non-negative", s.logger)
		return
	}

	now := time.Now().UTC()
	sample := detect.Sample{
		DeviceID:           *req.DeviceID,
		CPUUsage:           *req.CPUUsage,
		MemoryUsage:        *req.MemoryUsage,
		NetworkTraffic:     *req.NetworkTraffic,
		FailedAuthAttempts: int(*req.FailedAuthAttempts),
	}

	metric := &DeviceMetric{
		DeviceID:           sample.DeviceID,
		CPUUsage:           sample.CPUUsage,
		MemoryUsage:        sample.MemoryUsage,
		NetworkTraffic:     sample.NetworkTraffic,
		FailedAuthAttempts: sample.FailedAuthAttempts,
		RecordedAt:         now,
	}
	if err := s.telemetry.Append(metric); err != nil {
		respondStorageError(c, "persist telemetry", err, s.logger)
		return
	}
	if err := s.state.TouchSeen(sample.DeviceID, now); err != nil {
		logger := requestLogger(c, s.logger)
		logger.Warn().Err(err).Str("device_id", sample.DeviceID).Msg("failed to update last_seen")
	}

	patterns, err := s.patterns.Active()
	if err != nil {
		// the sample above stays recorded; the next one is evaluated normally
		respondStorageError(c, "load detection rules", err, s.logger)
		return
	}

	findings := detect.Evaluate(sample, engineRules(patterns))

	events := make([]SecurityEvent, 0, len(findings))
	for _, f := range findings {
		events = append(events, SecurityEvent{
			ID:          uuid.NewString(),
			DeviceID:    f.DeviceID,
			EventType:   f.EventType,
			Severity:    f.Severity,
			Description: f.Description,
			SourceIP:    f.SourceIP,
			DetectedAt:  now,
		})
	}

	if len(events) > 0 {
		if err := s.events.CreateBatch(events); err != nil {
			respondStorageError(c, "persist security events", err, s.logger)
			return
		}
		if err := s.state.MarkCompromised(sample.DeviceID, now); err != nil {
			respondStorageError(c, "update device status", err, s.logger)
			return
		}
		logger := requestLogger(c, s.logger)
		logger.Warn().
			Str("device_id", sample.DeviceID).
			Int("attacks_detected", len(events)).
			Msg("attacks detected")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"attacks_detected": len(events),
		"details":          events,
	})
}

// handleRecentEvents serves the display read: the newest events joined with
// minimal device fields. No detection logic runs here.
func (s *Server) handleRecentEvents(c *gin.Context) {
	events, err := s.events.RecentWithDevice(recentEventsLimit)
	if err != nil {
		respondStorageError(c, "load security events", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
