package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleHealth pings every collaborator in the Health map (as wired by
// cmd/docsearchd: document store, blob store, suggestion index; the vector
// store is not checked) and reports "degraded" if any is unreachable.
func (s *Server) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()
	resp := HealthResponse{Status: "ok", Dependencies: map[string]string{}}

	for name, checker := range s.health {
		if checker == nil {
			continue
		}
		if err := checker.Ping(ctx); err != nil {
			resp.Dependencies[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status == "degraded" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
