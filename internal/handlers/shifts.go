package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/services"
	"github.com/fleetsight/telemetry-agent/internal/shifts"
)

// SplitShifts returns the shift grid covering a period
// (GET /shifts)
func (h *Handler) SplitShifts(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required"})
		return
	}

	split, err := shifts.SplitRange(from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out := make([]v1.Shift, 0, len(split))
	for _, shift := range split {
		var dto v1.Shift
		dto.FromModel(shift)
		out = append(out, dto)
	}

	c.JSON(http.StatusOK, out)
}

// GetVehicleShifts returns per-shift telemetry of one vehicle
// (GET /vehicles/:id/shifts)
func (h *Handler) GetVehicleShifts(c *gin.Context) {
	vehicleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required"})
		return
	}

	items, err := h.collector.VehicleShifts(c.Request.Context(), vehicleID, from, to)
	switch {
	case errors.Is(err, services.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoCredentials):
		c.JSON(http.StatusFailedDependency, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		out := make([]v1.ShiftTelemetry, 0, len(items))
		for _, item := range items {
			var dto v1.ShiftTelemetry
			dto.FromModel(item)
			out = append(out, dto)
		}
		c.JSON(http.StatusOK, out)
	}
}
