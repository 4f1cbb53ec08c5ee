package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is the result of Service.Health
type HealthCheck struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Health checks the provider configuration and the session cache. A nil
// service reports unhealthy.
func (s *Service) Health(ctx context.Context) *HealthCheck {
	if s == nil {
		return &HealthCheck{
			Status:    HealthStatusUnhealthy,
			Timestamp: time.Now(),
			Checks: map[string]CheckResult{
				"service": {Status: HealthStatusUnhealthy, Error: ErrNotInitialized.Error()},
			},
		}
	}
	health := &HealthCheck{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Checks: map[string]CheckResult{
			"provider":      runCheck(func() error { return s.provider.ValidateConfig() }),
			"session_store": runCheck(func() error { return s.cache.Ping(ctx) }),
		},
	}
	for _, c := range health.Checks {
		if c.Status != HealthStatusHealthy {
			health.Status = HealthStatusUnhealthy
		}
	}
	return health
}

// HealthHandler serves Health as JSON, with 503 when unhealthy.
func (s *Service) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := s.Health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if health.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health)
	})
}

func runCheck(check func() error) CheckResult {
	start := time.Now()
	err := check()
	result := CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}
	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = err.Error()
	}
	return result
}
