package handler

import (
	"context"
	"net/http"
	"time"

	"posync/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the sync status; never exposes
// credentials or internals. A nil db or rdb is reported as "disabled".
func Health(db *gorm.DB, rdb *redis.Client, status func() engine.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if db != nil {
			dbStatus = "connected"
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		code := http.StatusOK
		if dbStatus == "error" || redisStatus == "error" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"ok":    code == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"sync":  status(),
		})
	}
}
