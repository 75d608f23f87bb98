package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/services"
)

// GetCollectorStatus returns the collector status
// (GET /collector)
func (h *Handler) GetCollectorStatus(c *gin.Context) {
	status := h.collector.GetStatus(c.Request.Context())

	var resp v1.CollectorStatus
	resp.FromModel(status)

	c.JSON(http.StatusOK, resp)
}

// StartCollection starts telemetry collection over a period
// (POST /collector)
func (h *Handler) StartCollection(c *gin.Context) {
	var req v1.StartCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	from, err := models.ParseDateTime(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid from date: %q", req.From)})
		return
	}
	to, err := models.ParseDateTime(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid to date: %q", req.To)})
		return
	}

	runID, err := h.collector.Start(c.Request.Context(), services.Period{From: from, To: to})
	switch {
	case errors.Is(err, services.ErrCollectionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoCredentials):
		c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, v1.StartCollectionResponse{
			RunID: runID.String(),
			From:  models.FormatDateTime(from),
			To:    models.FormatDateTime(to),
		})
	}
}

// StopCollection cancels a running collection
// (DELETE /collector)
func (h *Handler) StopCollection(c *gin.Context) {
	if err := h.collector.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "collection stopped"})
}
