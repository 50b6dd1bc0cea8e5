package monitoring

import (
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestStats summarises the traffic seen by MetricsMiddleware since start.
type RequestStats struct {
	Total        int64            `json:"total"`
	InFlight     int64            `json:"in_flight"`
	ClientErrors int64            `json:"client_errors"`
	ServerErrors int64            `json:"server_errors"`
	RateLimited  int64            `json:"rate_limited"`
	PlanRequests int64            `json:"plan_requests"`
	ByClass      map[string]int64 `json:"by_class"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
	StartedAt    time.Time        `json:"started_at"`
	LastRequest  time.Time        `json:"last_request"`
}

type requestCounter struct {
	mu           sync.Mutex
	stats        RequestStats
	totalLatency time.Duration
}

var requests = &requestCounter{
	stats: RequestStats{
		ByClass:   make(map[string]int64),
		StartedAt: time.Now(),
	},
}

// StatsFunc reports the current state of a component (cache, pool, breaker)
// for the metrics endpoint.
type StatsFunc func() map[string]interface{}

var (
	statsMu        sync.RWMutex
	statsProviders = make(map[string]StatsFunc)
)

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requests.mu.Lock()
		requests.stats.InFlight++
		requests.mu.Unlock()

		c.Next()

		code := c.Writer.Status()
		elapsed := time.Since(start)

		requests.mu.Lock()
		defer requests.mu.Unlock()

		s := &requests.stats
		s.InFlight--
		s.Total++
		s.LastRequest = time.Now()
		s.ByClass[statusClass(code)]++
		requests.totalLatency += elapsed

		switch {
		case code == http.StatusTooManyRequests:
			s.RateLimited++
			s.ClientErrors++
		case code >= 500:
			s.ServerErrors++
		case code >= 400:
			s.ClientErrors++
		}
		if strings.HasSuffix(c.FullPath(), "/plan") {
			s.PlanRequests++
		}
	}
}

// GetRequestStats returns a copy of the request counters.
func GetRequestStats() RequestStats {
	requests.mu.Lock()
	defer requests.mu.Unlock()

	out := requests.stats
	out.ByClass = make(map[string]int64, len(requests.stats.ByClass))
	for k, v := range requests.stats.ByClass {
		out.ByClass[k] = v
	}
	if out.Total > 0 {
		out.AvgLatencyMs = float64(requests.totalLatency.Microseconds()) / 1000 / float64(out.Total)
	}
	return out
}

type RuntimeStats struct {
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
	HeapMB     uint64 `json:"heap_mb"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
}

func GetRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeStats{
		Uptime:     uptime(),
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     m.HeapAlloc / 1024 / 1024,
		NumGC:      m.NumGC,
		GoVersion:  runtime.Version(),
	}
}

func uptime() string {
	return time.Since(requests.stats.StartedAt).Round(time.Second).String()
}

func RegisterStatsProvider(name string, fn StatsFunc) {
	statsMu.Lock()
	defer statsMu.Unlock()
	statsProviders[name] = fn
}

func componentStats() map[string]interface{} {
	statsMu.RLock()
	defer statsMu.RUnlock()

	out := make(map[string]interface{}, len(statsProviders))
	for name, fn := range statsProviders {
		out[name] = fn()
	}
	return out
}

// MetricsHandler serves request, planner, component and runtime stats as one document.
func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"requests":   GetRequestStats(),
			"generation": GetGenerationStats(),
			"components": componentStats(),
			"runtime":    GetRuntimeStats(),
			"timestamp":  time.Now(),
		})
	}
}
