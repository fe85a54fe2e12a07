package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/models"
)

// Fault kinds accepted by the fault endpoint
const (
	FaultKindValidation         = "validation"
	FaultKindRedefinition       = "redefinition"
	FaultKindInstanceUpdate     = "instance_update"
	FaultKindResourceExhaustion = "resource_exhaustion"
	FaultKindWrapped            = "wrapped"
)

// FaultRequest reports a runtime fault observed outside the event flow
type FaultRequest struct {
	AggregateID     string  `json:"aggregate_id" binding:"required"`
	Kind            string  `json:"kind" binding:"required,oneof=validation redefinition instance_update resource_exhaustion wrapped"`
	ClassName       string  `json:"class_name"`
	Reason          string  `json:"reason"`
	RuntimeError    string  `json:"runtime_error"`
	FailedInstances int     `json:"failed_instances"`
	Resource        string  `json:"resource"`
	UsagePercent    float64 `json:"usage_percent"`
	Message         string  `json:"message"`
}

// reportFault runs the fault pipeline for a reported fault and returns the
// recovery decision with the rendered report
func (s *Server) reportFault(c *gin.Context) {
	var req FaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot, errCtx := s.faultHandler.Capture(ctx, req.AggregateID)

	var fault domain.Fault
	switch req.Kind {
	case FaultKindValidation:
		fault = domain.NewValidationFault(req.ClassName, req.Reason, snapshot, errCtx)
	case FaultKindRedefinition:
		fault = domain.NewRedefinitionFault(req.ClassName, req.Reason, req.RuntimeError, snapshot, errCtx)
	case FaultKindInstanceUpdate:
		fault = domain.NewInstanceUpdateFault(req.ClassName, req.FailedInstances, snapshot, errCtx)
	case FaultKindResourceExhaustion:
		fault = domain.NewResourceExhaustionFault(req.Resource, req.UsagePercent, snapshot, errCtx)
	case FaultKindWrapped:
		fault = domain.WrapFault(errors.New(req.Message), snapshot, errCtx)
	}

	decision := s.faultHandler.Process(ctx, fault)

	c.JSON(http.StatusOK, decision)
}

// getFaultReport returns a persisted fault report by snapshot id
func (s *Server) getFaultReport(c *gin.Context) {
	snapshotID := c.Param("snapshot_id")

	var report models.FaultReport
	if err := s.db.Where("snapshot_id = ?", snapshotID).First(&report).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}
