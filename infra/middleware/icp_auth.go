package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"icp_server/pkg/apperr"
	"icp_server/pkg/logger"
)

// JWTAuth validates HS256 bearer tokens issued by the platform's auth service
// and stores the tenant identity on the request context.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		var tokenString string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
			}
			if secret == "" {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return []byte(secret), nil
		})
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("invalid token")
		}
		if !token.Valid {
			return apperr.InvalidToken("invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperr.InvalidToken("invalid claims")
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				return apperr.InvalidToken("token expired")
			}
		}

		tenantIDStr, ok := claims["sub"].(string)
		if !ok {
			return apperr.InvalidToken("missing tenant id in token")
		}
		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			return apperr.InvalidToken("invalid tenant id format")
		}

		c.Locals("tenant_id", tenantID)
		c.Locals("claims", claims)

		return c.Next()
	}
}
