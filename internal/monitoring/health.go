package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 5 * time.Second

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

var (
	checksMu sync.Mutex
	checks   = make(map[string]HealthCheckFunc)
)

// RegisterHealthCheck adds a named check run by the health and readiness
// endpoints. Registering the same name again replaces the check.
func RegisterHealthCheck(name string, fn HealthCheckFunc) {
	checksMu.Lock()
	defer checksMu.Unlock()
	checks[name] = fn
}

func UnregisterHealthCheck(name string) {
	checksMu.Lock()
	defer checksMu.Unlock()
	delete(checks, name)
}

// RunHealthChecks runs every registered check, each with its own timeout.
func RunHealthChecks(ctx context.Context) map[string]HealthCheck {
	checksMu.Lock()
	defer checksMu.Unlock()

	results := make(map[string]HealthCheck, len(checks))
	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := fn(checkCtx)
		cancel()

		result := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
		}
		results[name] = result
	}
	return results
}

func allHealthy(results map[string]HealthCheck) bool {
	for _, r := range results {
		if r.Status != "healthy" {
			return false
		}
	}
	return true
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := RunHealthChecks(c.Request.Context())

		status, code := "healthy", http.StatusOK
		if !allHealthy(results) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"checks":    results,
			"uptime":    uptime(),
			"timestamp": time.Now(),
		})
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allHealthy(RunHealthChecks(c.Request.Context())) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"uptime":    uptime(),
			"timestamp": time.Now(),
		})
	}
}
