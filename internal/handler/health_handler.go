package handler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"resume-intake/internal/transport/httpdto"
	intake_errors "resume-intake/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// Static answers without touching any dependency.
func (h *HealthHandler) Static(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.HealthDTO{Status: "healthy"}))
}

// Deep runs every registered check and reports 503 if any fails.
func (h *HealthHandler) Deep(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	result := httpdto.HealthDTO{Status: "healthy", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			c.Error(fmt.Errorf("%s check: %w: %v", name, intake_errors.ErrServiceUnavailable, err))
			result.Status = "unhealthy"
			result.Checks[name] = "down"
			continue
		}
		result.Checks[name] = "up"
	}

	if result.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponseWithData("dependency check failed", "UNHEALTHY", result))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}
