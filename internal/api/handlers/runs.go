package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"caiso-pipeline/internal/api/models"
	"caiso-pipeline/internal/store"

	"github.com/gin-gonic/gin"
)

// RunsHandler serves the recorded run history.
type RunsHandler struct {
	Store *store.Store
}

func NewRunsHandler(s *store.Store) *RunsHandler {
	return &RunsHandler{Store: s}
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_PARAM", Message: "limit must be a positive integer"},
			})
			return
		}
		limit = parsed
	}

	runs, err := h.Store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "STORE_ERROR", Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, models.RunListResponse{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	run, err := h.Store.GetRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "RUN_NOT_FOUND", Message: "no run with that id"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "STORE_ERROR", Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, models.RunResponse{Run: *run})
}
