package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// PoolGauges receives pool connection counts on every health check, so the
// metrics endpoint tracks the pool without its own polling loop.
type PoolGauges interface {
	SetDBPoolActive(n int64)
	SetDBPoolIdle(n int64)
}

func recordPoolGauges(stats *PoolStats, gauges PoolGauges) {
	if gauges == nil {
		return
	}
	gauges.SetDBPoolActive(int64(stats.AcquiredConns))
	gauges.SetDBPoolIdle(int64(stats.IdleConns))
}

// healthResponse maps a ping outcome onto the health endpoint's status code
// and body.
func healthResponse(stats *PoolStats, pingErr error, latency time.Duration) (int, map[string]interface{}) {
	if pingErr != nil {
		stats.Healthy = false
		return http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  pingErr.Error(),
			"pool":   stats,
		}
	}
	return http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"ping_ms": latency.Milliseconds(),
		"pool":    stats,
	}
}

// HealthHandler returns a handler for the database health check endpoint.
// An optional PoolGauges is updated with the pool counts on every check.
func HealthHandler(pool *pgxpool.Pool, gauges ...PoolGauges) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		latency := time.Since(start)

		stats := GetPoolStats(pool)
		for _, g := range gauges {
			recordPoolGauges(stats, g)
		}
		code, body := healthResponse(stats, err, latency)
		return c.JSON(code, body)
	}
}
