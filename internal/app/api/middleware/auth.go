package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/plannerhub/marketplace/pkg/response"
	"github.com/plannerhub/marketplace/pkg/types"
)

const (
	// ContextKeyUserID is where AuthMiddleware stores the authenticated
	// user's id on the gin context.
	ContextKeyUserID = "userID"
	ContextKeyRole   = "role"
)

// AuthMiddleware validates the HS256 bearer token and stores the subject and
// role claims on the context. Tokens carry "sub" (user id) and "role"
// (client, planner, helper or admin).
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token"))
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token claims"))
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "token has no subject"))
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ContextKeyUserID, sub)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// RequireRole rejects requests whose token role is not in the allowed set.
// It must run after AuthMiddleware.
func RequireRole(roles ...types.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := types.ActorRole(c.GetString(ContextKeyRole))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, "insufficient role"))
		c.Abort()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}
