package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"socialgraph/models"
	"socialgraph/utils"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
)

func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			utils.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		// ParseToken has already validated the id
		c.Set(userIDKey, uuid.MustParse(claims.UserID))
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	if id, ok := c.Get(userIDKey); ok {
		return id.(uuid.UUID)
	}
	return uuid.Nil
}

func GetIdentity(c *gin.Context) models.Identity {
	return models.Identity{ID: GetUserID(c), Name: c.GetString(usernameKey)}
}
