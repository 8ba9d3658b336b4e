package handler

import (
	"context"
	"net/http"
	"time"

	"adriani/internal/infra"
	"adriani/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The WhatsApp breaker state and dead-letter counts are informational and
// do not turn the check red.
func Health(db *gorm.DB, rdb *redis.Client, whatsappCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlq map[string]int64
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if n, err := worker.DLQLengths(ctx, rdb); err == nil {
			dlq = n
		}

		whatsapp := "desconocido"
		if whatsappCB != nil {
			whatsapp = whatsappCB.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":       status == http.StatusOK,
			"db":       dbStatus,
			"redis":    redisStatus,
			"whatsapp": whatsapp,
			"dlq":      dlq,
		})
	}
}
