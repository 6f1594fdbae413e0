package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports liveness plus the state of optional dependencies.
func HealthCheck(version string, checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))

		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				deps[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":       status,
			"version":      version,
			"dependencies": deps,
		})
	}
}
