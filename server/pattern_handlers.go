package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (s *Server) registerPatternRoutes(r *gin.Engine) {
	r.GET("/patterns", s.listPatterns)
	r.POST("/patterns/:id/toggle", s.togglePattern)
}

func (s *Server) listPatterns(c *gin.Context) {
	patterns, err := s.patterns.AllBySeverity()
	if err != nil {
		respondStorageError(c, "list attack patterns", err, s.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

type toggleRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (s *Server) togglePattern(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "missing active flag", s.logger)
		return
	}

	id := c.Param("id")
	if err := s.patterns.SetActive(id, *req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "pattern not found", s.logger)
			return
		}
		respondStorageError(c, "toggle attack pattern", err, s.logger)
		return
	}

	logger := requestLogger(c, s.logger)
	logger.Info().Str("pattern_id", id).Bool("active", *req.Active).Msg("attack pattern toggled")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
