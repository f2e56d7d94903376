package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recentMetricsLimit = 50

func (s *Server) registerDeviceRoutes(r *gin.Engine) {
	r.GET("/devices", s.listDevices)
	r.GET("/devices/:id", s.getDevice)
	r.POST("/devices", s.createDevice)
	r.GET("/devices/:id/metrics", s.deviceMetrics)
	r.POST("/devices/:id/liveness", s.reportLiveness)
	r.GET("/stats", s.handleStats)
}

func (s *Server) listDevices(c *gin.Context) {
	var devices []Device
	if err := s.db.Order("created_at").Find(&devices).Error; err != nil {
		respondStorageError(c, "list devices", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (s *Server) getDevice(c *gin.Context) {
	var device Device
	if err := s.db.Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "device not found", s.logger)
			return
		}
		respondStorageError(c, "load device", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, device)
}

type createDeviceRequest struct {
	Name       string `json:"name" binding:"required"`
	DeviceType string `json:"device_type" binding:"required"`
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
}

// createDevice is the registration write path used by collaborators. New
// devices start unknown until a liveness report or telemetry arrives.
func (s *Server) createDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing required field", s.logger)
		return
	}

	device := Device{
		ID:         uuid.NewString(),
		Name:       req.Name,
		DeviceType: req.DeviceType,
		IPAddress:  req.IPAddress,
		MACAddress: req.MACAddress,
		Status:     StatusUnknown,
		LastSeen:   time.Now().UTC(),
	}
	if err := s.db.Create(&device).Error; err != nil {
		respondStorageError(c, "create device", err, s.logger)
		return
	}
	c.JSON(http.StatusCreated, device)
}

func (s *Server) deviceMetrics(c *gin.Context) {
	metrics, err := s.telemetry.RecentForDevice(c.Param("id"), recentMetricsLimit)
	if err != nil {
		respondStorageError(c, "load device metrics", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

type livenessRequest struct {
	Status string `json:"status" binding:"required"`
}

// reportLiveness is the external heartbeat input. It may set online,
// offline, or unknown; the compromised transition belongs to detection.
func (s *Server) reportLiveness(c *gin.Context) {
	var req livenessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing status", s.logger)
		return
	}

	switch req.Status {
	case StatusOnline, StatusOffline, StatusUnknown:
	default:
		respondError(c, http.StatusBadRequest, "status must be online, offline, or unknown", s.logger)
		return
	}

	if err := s.state.MarkLiveness(c.Param("id"), req.Status, time.Now().UTC()); err != nil {
		respondStorageError(c, "update liveness", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := gin.H{}

	var total, online, compromised int64
	if err := s.db.Model(&Device{}).Count(&total).Error; err != nil {
		respondStorageError(c, "count devices", err, s.logger)
		return
	}
	if err := s.db.Model(&Device{}).Where("status = ?", StatusOnline).Count(&online).Error; err != nil {
		respondStorageError(c, "count devices", err, s.logger)
		return
	}
	if err := s.db.Model(&Device{}).Where("status = ?", StatusCompromised).Count(&compromised).Error; err != nil {
		respondStorageError(c, "count devices", err, s.logger)
		return
	}

	open, err := s.events.CountOpen("")
	if err != nil {
		respondStorageError(c, "count events", err, s.logger)
		return
	}
	critical, err := s.events.CountOpen("critical")
	if err != nil {
		respondStorageError(c, "count events", err, s.logger)
		return
	}

	stats["total_devices"] = total
	stats["online_devices"] = online
	stats["compromised_devices"] = compromised
	stats["active_alerts"] = open
	stats["critical_alerts"] = critical
	c.JSON(http.StatusOK, stats)
}
