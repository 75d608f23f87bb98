package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/services"
	"github.com/fleetsight/telemetry-agent/internal/store"
)

// GetCredentials returns the stored credentials status
// (GET /credentials)
func (h *Handler) GetCredentials(c *gin.Context) {
	creds, err := h.collector.GetCredentials(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, v1.CredentialsStatus{Configured: false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, v1.CredentialsStatus{
		Configured: true,
		BaseURL:    creds.BaseURL,
		Tokens:     len(creds.Tokens),
	})
}

// PutCredentials stores TMS credentials
// (PUT /credentials)
func (h *Handler) PutCredentials(c *gin.Context) {
	var req v1.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	creds := &models.Credentials{
		BaseURL: req.BaseURL,
		Tokens:  req.Tokens,
	}
	if err := h.collector.SaveCredentials(c.Request.Context(), creds); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, v1.CredentialsStatus{
		Configured: true,
		BaseURL:    creds.BaseURL,
		Tokens:     len(creds.Tokens),
	})
}

// DeleteCredentials removes stored credentials
// (DELETE /credentials)
func (h *Handler) DeleteCredentials(c *gin.Context) {
	if err := h.collector.DeleteCredentials(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
