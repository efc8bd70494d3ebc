package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/cache"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth responds with service, database and redis status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "connected"
	if err := h.redis.Ping(ctx); err != nil {
		redisStatus = "disconnected"
	}

	status := "healthy"
	code := 200
	if dbStatus != "connected" {
		status = "unhealthy"
		code = 503
	}

	utils.Success(c, code, "Health check", gin.H{
		"status":  status,
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"db":      dbStatus,
		"redis":   redisStatus,
	})
}
