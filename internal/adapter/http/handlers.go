package http

import (
	"context"
	"net/http"
	"time"

	"loan-engine/pkg/clock"

	"github.com/labstack/echo/v4"
)

// Check probes one dependency for /health.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handler struct {
	clock  clock.Clock
	checks []Check
}

func NewHandler(clk clock.Clock, checks ...Check) *Handler {
	return &Handler{clock: clk, checks: checks}
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Probe(ctx); err != nil {
			deps[chk.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[chk.Name] = "ok"
	}
	body := map[string]any{
		"status": status,
		"time":   h.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(deps) > 0 {
		body["deps"] = deps
	}
	return c.JSON(code, body)
}
