package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/store"
)

// ListResults returns archived collection results
// (GET /results)
//
// Without parameters it returns the latest run and its results. A "run"
// parameter selects a specific run; "from" and "to" select by window
// overlap across runs instead.
func (h *Handler) ListResults(c *gin.Context) {
	ctx := c.Request.Context()

	if fromParam := c.Query("from"); fromParam != "" {
		from, err := models.ParseDateTime(fromParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid from date: %q", fromParam)})
			return
		}
		to, err := models.ParseDateTime(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid to date: %q", c.Query("to"))})
			return
		}

		results, err := h.collector.ResultsForPeriod(ctx, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v1.ResultsResponse{Results: results})
		return
	}

	var (
		run *models.CollectionRun
		err error
	)
	if runParam := c.Query("run"); runParam != "" {
		id, perr := uuid.Parse(runParam)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid run id: %q", runParam)})
			return
		}
		run, err = h.collector.Run(ctx, id)
	} else {
		run, err = h.collector.LatestRun(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no collection run found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := h.collector.Results(ctx, run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var runDTO v1.CollectionRun
	runDTO.FromModel(run)
	c.JSON(http.StatusOK, v1.ResultsResponse{Run: &runDTO, Results: results})
}
