package middleware

import (
	"context"
	"net/http"
	"strings"

	"razorpay-provider/internal/utils"
	"razorpay-provider/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the host's bearer token and requires the given
// role claim. Browsers cannot set headers on a websocket upgrade, so the
// token may also arrive as the access_token query parameter.
func AuthRequired(secret, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			c.Abort()
			return
		}

		if role != "" && claims.Role != role {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, claims.Subject)
		c.Set(utils.ContextRole, claims.Role)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.SubjectKey, claims.Subject))

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return ""
		}
		return strings.TrimSpace(tokenString)
	}
	return c.Query("access_token")
}
