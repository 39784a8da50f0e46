// Package middleware holds the gin middleware of the HTTP API: bearer token
// authentication and request observability.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireJWT protects routes with HMAC-signed bearer tokens. When auth is
// disabled in the config the middleware passes every request through.
func RequireJWT(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		tokenStr := extractBearer(c.Request.Header.Get("Authorization"))
		if tokenStr == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil || !token.Valid {
			log.Warn(c.Request.Context(), "token verification failed", logger.Fields{
				"client_ip": c.ClientIP(),
			})
			abortUnauthorized(c, "invalid bearer token")
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(string); ok && sub != "" {
				ctx := context.WithValue(c.Request.Context(), constants.ContextKeySubject, sub)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	traceID, _ := c.Request.Context().Value(constants.ContextKeyTraceID).(string)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.ErrorResponse(errors.ErrUnauthorized.WithMessage("%s", msg), traceID))
}
