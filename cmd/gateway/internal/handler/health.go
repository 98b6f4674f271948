package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/service"
)

// HealthHandler reports redis connectivity and session statistics. The
// session count is best-effort (-1 when redis is down).
func HealthHandler(redisClient *redis.Client, sessions *service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "UP",
			"timestamp": time.Now(),
		}

		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			health["redis"] = "DOWN"
			health["redis_error"] = err.Error()
		} else {
			health["redis"] = "UP"
		}

		health["active_sessions"] = sessions.CountActive(c.Request.Context())

		c.JSON(http.StatusOK, health)
	}
}

func PingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
