package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"voxlab/leanscope/leaning"
	"voxlab/leanscope/pkg/logger"
	"voxlab/leanscope/pkg/metrics"
)

// AnalyzeService is the inference surface the handler depends on.
type AnalyzeService interface {
	Analyze(ctx context.Context, items []leaning.QAItem) (*leaning.BatchResult, error)
}

// ResponseError is the uniform error envelope.
type ResponseError struct {
	Message string `json:"message"`
}

type AnalyzeHandler struct {
	service   AnalyzeService
	validator *validator.Validate
	batchRule string
	timeout   time.Duration
}

// NewAnalyzeHandler builds the handler. maxBatch bounds the number of items
// accepted per request so one call cannot exhaust tensor memory.
func NewAnalyzeHandler(service AnalyzeService, maxBatch int) *AnalyzeHandler {
	if maxBatch <= 0 {
		maxBatch = 512
	}
	return &AnalyzeHandler{
		service:   service,
		validator: validator.New(),
		batchRule: fmt.Sprintf("max=%d", maxBatch),
		timeout:   60 * time.Second,
	}
}

// Analyze accepts an ordered JSON array of question/answer items and returns
// the per-item classification results with batch aggregates. Malformed items
// are coerced rather than rejected; only an oversized batch or unparseable
// body is a client error.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	start := time.Now()
	metrics.AnalyzeRequests.Inc()

	var items []leaning.QAItem
	if err := c.Bind(&items); err != nil {
		logger.Error("Failed to bind analyze request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "request body must be a JSON array of {question, answer, id?} objects"})
	}
	if err := h.validator.Var(items, h.batchRule); err != nil {
		logger.Error("Rejected oversized batch", err, "items", len(items))
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "batch exceeds the maximum item count"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.service.Analyze(ctx, items)
	if err != nil {
		logger.Error("Failed to analyze batch", err, "items", len(items))
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.AnalyzeLatency.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, result)
}

// Health returns a static liveness payload.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
