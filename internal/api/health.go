package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the status of a health check.
type HealthStatus string

// Health statuses.
const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of one named check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthCheck is one dependency probe. Critical checks make the service
// unhealthy when they fail; the others only degrade it.
type HealthCheck struct {
	Probe    func(ctx context.Context) error
	Critical bool
}

func (h HealthCheck) run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := h.Probe(ctx)
	result := CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).Round(time.Microsecond).String()}

	if err != nil {
		result.Message = err.Error()
		result.Status = HealthStatusDegraded
		if h.Critical {
			result.Status = HealthStatusUnhealthy
		}
	}
	return result
}

func (s *Server) health(c *gin.Context) {
	response := HealthResponse{
		Status:  HealthStatusHealthy,
		Service: s.opts.ServiceName,
		Version: s.opts.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	}

	if len(s.opts.Checks) > 0 {
		response.Checks = make(map[string]CheckResult, len(s.opts.Checks))
		for name, check := range s.opts.Checks {
			result := check.run(c.Request.Context())
			response.Checks[name] = result

			switch {
			case result.Status == HealthStatusUnhealthy:
				response.Status = HealthStatusUnhealthy
			case result.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy:
				response.Status = HealthStatusDegraded
			}
		}
	}

	status := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
