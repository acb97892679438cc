package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"sayit/internal/database"

	"github.com/gin-gonic/gin"
)

// DatabaseHealth is implemented by *database.MongoDB.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) database.Health
}

// ConnectionCounter is implemented by the realtime hub.
type ConnectionCounter interface {
	Connections() int64
}

type HealthHandler struct {
	db      DatabaseHealth
	live    ConnectionCounter
	version string
	started time.Time
}

func NewHealthHandler(db DatabaseHealth, live ConnectionCounter, version string) *HealthHandler {
	return &HealthHandler{db: db, live: live, version: version, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) Detailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	db := h.db.Health(ctx)
	status := "ok"
	code := http.StatusOK
	if !db.Connected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(code, Response{
		Success: db.Connected,
		Data: gin.H{
			"status":          status,
			"version":         h.version,
			"uptimeSeconds":   int64(time.Since(h.started).Seconds()),
			"database":        db,
			"liveConnections": h.live.Connections(),
			"goroutines":      runtime.NumGoroutine(),
			"heapAllocBytes":  mem.HeapAlloc,
		},
	})
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "alive"})
}

// Readiness fails while the database is unreachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, Response{Message: "Database not reachable"})
		return
	}
	respond(c, http.StatusOK, gin.H{"status": "ready"})
}
