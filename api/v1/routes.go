package v1

import (
	"github.com/gin-gonic/gin"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// GetCollectorStatus returns the collector status
	// (GET /collector)
	GetCollectorStatus(c *gin.Context)
	// StartCollection starts telemetry collection over a period
	// (POST /collector)
	StartCollection(c *gin.Context)
	// StopCollection cancels a running collection
	// (DELETE /collector)
	StopCollection(c *gin.Context)
	// GetCredentials returns the stored credentials status
	// (GET /credentials)
	GetCredentials(c *gin.Context)
	// PutCredentials stores TMS credentials
	// (PUT /credentials)
	PutCredentials(c *gin.Context)
	// DeleteCredentials removes stored credentials
	// (DELETE /credentials)
	DeleteCredentials(c *gin.Context)
	// ListResults returns archived collection results
	// (GET /results)
	ListResults(c *gin.Context)
	// SplitShifts returns the shift grid covering a period
	// (GET /shifts)
	SplitShifts(c *gin.Context)
	// GetVehicleShifts returns per-shift telemetry of one vehicle
	// (GET /vehicles/:id/shifts)
	GetVehicleShifts(c *gin.Context)
}

// RegisterHandlers registers the API routes on the router group.
func RegisterHandlers(router *gin.RouterGroup, si ServerInterface) {
	router.GET("/collector", si.GetCollectorStatus)
	router.POST("/collector", si.StartCollection)
	router.DELETE("/collector", si.StopCollection)

	router.GET("/credentials", si.GetCredentials)
	router.PUT("/credentials", si.PutCredentials)
	router.DELETE("/credentials", si.DeleteCredentials)

	router.GET("/results", si.ListResults)

	router.GET("/shifts", si.SplitShifts)
	router.GET("/vehicles/:id/shifts", si.GetVehicleShifts)
}
