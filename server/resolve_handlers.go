package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerResolutionRoutes(r *gin.Engine) {
	r.POST("/resolve", s.requireOperator, s.handleResolve)
}

// requireOperator gates device-state resets behind the operator credential.
// Resolution mutates device state rather than event state, so it runs at a
// higher trust level than the ordinary read/write surface.
func (s *Server) requireOperator(c *gin.Context) {
	authz := c.GetHeader("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.operatorToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
		return
	}
	c.Next()
}

type resolveRequest struct {
	DeviceID string `json:"device_id"`
	EventID  string `json:"event_id"`
}

// handleResolve runs the two-step resolution saga. There is no retry loop
// and no idempotency key: resolving twice re-runs the device reset, which
// is harmless.
func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" {
		respondError(c, http.StatusBadRequest, "missing device_id", s.logger)
		return
	}

	if err := s.resolver.Resolve(req.DeviceID, req.EventID); err != nil {
		if errors.Is(err, errDeviceResetFailed) {
			// detail already logged by the coordinator
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "device status reset failed",
				"hint":  "the event is already marked resolved; retry to reset the device status",
			})
			return
		}
		respondStorageError(c, "resolve event", err, s.logger)
		return
	}

	logger := requestLogger(c, s.logger)
	logger.Info().Str("device_id", req.DeviceID).Msg("incident resolved")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Status for device %s reset to 'online'.", req.DeviceID),
	})
}
