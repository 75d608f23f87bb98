// Package handlers implements the HTTP API on top of the collector service.
package handlers

import (
	v1 "github.com/fleetsight/telemetry-agent/api/v1"
	"github.com/fleetsight/telemetry-agent/internal/services"
)

type Handler struct {
	collector *services.CollectorService
}

func New(collector *services.CollectorService) *Handler {
	return &Handler{collector: collector}
}

var _ v1.ServerInterface = (*Handler)(nil)
