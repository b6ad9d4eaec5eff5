package db

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestHealthResponse_Healthy(t *testing.T) {
	stats := &PoolStats{TotalConns: 4, MaxConns: 20, Healthy: true}

	code, body := healthResponse(stats, nil, 3*time.Millisecond)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["ping_ms"] != int64(3) {
		t.Errorf("ping_ms = %v", body["ping_ms"])
	}
	if body["pool"] != stats {
		t.Error("pool stats missing from body")
	}
}

type capturedGauges struct {
	active, idle int64
}

func (g *capturedGauges) SetDBPoolActive(n int64) { g.active = n }
func (g *capturedGauges) SetDBPoolIdle(n int64)   { g.idle = n }

func TestRecordPoolGauges(t *testing.T) {
	stats := &PoolStats{AcquiredConns: 3, IdleConns: 7}
	g := &capturedGauges{}

	recordPoolGauges(stats, g)
	if g.active != 3 || g.idle != 7 {
		t.Errorf("gauges = %d/%d, want 3/7", g.active, g.idle)
	}

	// A nil recorder is allowed.
	recordPoolGauges(stats, nil)
}

func TestHealthResponse_PingFailure(t *testing.T) {
	stats := &PoolStats{TotalConns: 4, Healthy: true}

	code, body := healthResponse(stats, errors.New("connection refused"), 0)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["error"] != "connection refused" {
		t.Errorf("error = %v", body["error"])
	}
	if stats.Healthy {
		t.Error("a failed ping must mark the pool unhealthy")
	}
}
