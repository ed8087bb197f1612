// Package health reports liveness of the server and its backing services.
package health

import (
	"context"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type Response struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	TotalRequests uint64                     `json:"total_requests"`
	Runtime       RuntimeStats               `json:"runtime"`
	Components    map[string]ComponentStatus `json:"components"`
}

type Handler struct {
	db      *gorm.DB
	redis   *redis.Client
	version string

	startTime     time.Time
	totalRequests atomic.Uint64
}

func NewHandler(db *gorm.DB, redisClient *redis.Client, version string) *Handler {
	return &Handler{
		db:        db,
		redis:     redisClient,
		version:   version,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Liveness)
}

func (h *Handler) IncrementRequests() {
	h.totalRequests.Add(1)
}

// Liveness is the cheap probe: the process is up.
func (h *Handler) Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Health pings each backing service and aggregates an overall status. A
// degraded dependency yields 200 with status degraded; only a fully dead
// backend yields 503.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	components := map[string]ComponentStatus{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
	}

	overall := StatusHealthy
	unhealthy := 0
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			unhealthy++
		}
	}
	switch unhealthy {
	case 0:
	case len(components):
		overall = StatusUnhealthy
	default:
		overall = StatusDegraded
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := Response{
		Status:        overall,
		Timestamp:     time.Now(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		TotalRequests: h.totalRequests.Load(),
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: mem.Alloc / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		Components: components,
	}

	status := http.StatusOK
	if overall == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ComponentStatus{Status: StatusUnhealthy, LatencyMs: latency, Error: err.Error()}
	}
	return ComponentStatus{Status: StatusHealthy, LatencyMs: latency}
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	err := h.redis.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ComponentStatus{Status: StatusUnhealthy, LatencyMs: latency, Error: err.Error()}
	}
	return ComponentStatus{Status: StatusHealthy, LatencyMs: latency}
}
