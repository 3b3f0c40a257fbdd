package handlers

import (
	"errors"
	"net/http"
	"time"

	"caiso-pipeline/internal/api/models"
	"caiso-pipeline/internal/pipeline"
	"caiso-pipeline/internal/service"

	"github.com/gin-gonic/gin"
)

// PipelineHandler triggers pipeline runs over HTTP.
type PipelineHandler struct {
	Runner *service.Runner
}

func NewPipelineHandler(runner *service.Runner) *PipelineHandler {
	return &PipelineHandler{Runner: runner}
}

// RunPipeline handles POST /api/v1/pipeline/run
func (h *PipelineHandler) RunPipeline(c *gin.Context) {
	var req models.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
			})
			return
		}
	}
	if req.LookbackMinutes < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: "lookback_minutes must not be negative"},
		})
		return
	}

	runner := *h.Runner
	if req.LookbackMinutes > 0 {
		runner.Lookback = time.Duration(req.LookbackMinutes) * time.Minute
	}

	report, err := runner.RunOnce(time.Now().UTC())
	if err != nil {
		c.JSON(statusForRunError(err), models.ErrorResponse{
			Error: models.ErrorDetail{Code: codeForRunError(err), Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, models.RunResponse{Run: report.Run})
}

func statusForRunError(err error) int {
	var fetchErr *pipeline.FetchError
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func codeForRunError(err error) string {
	var fetchErr *pipeline.FetchError
	var schemaErr *pipeline.SchemaError
	var collisionErr *pipeline.JoinCollisionError
	switch {
	case errors.As(err, &fetchErr):
		return "FETCH_FAILED"
	case errors.As(err, &schemaErr):
		return "SCHEMA_MISMATCH"
	case errors.As(err, &collisionErr):
		return "JOIN_COLLISION"
	default:
		return "PIPELINE_ERROR"
	}
}
