package middleware

import (
	"errors"
	"net/http"
	"strings"

	"codeplay/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "token_claims"
)

// TokenValidator is satisfied by *auth.JWTService
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token. Websocket
// upgrades may pass the token as the "token" query parameter instead.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := requestToken(c)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, err.Error(), "AUTH_HEADER_MISSING")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, auth.ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
			}
			abortJSON(c, http.StatusUnauthorized, err.Error(), code)
			return
		}

		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and never rejects
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := requestToken(c); err == nil {
			if claims, err := validator.ValidateToken(token); err == nil {
				c.Set(ctxUserID, claims.UserID())
				c.Set(ctxClaims, claims)
			}
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			if t := c.Query("token"); t != "" {
				return t, nil
			}
		}
		return "", errors.New("authorization header is required")
	}
	return extractBearerToken(header)
}

func extractBearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("invalid authorization header format, expected 'Bearer <token>'")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("token cannot be empty")
	}
	return token, nil
}

// GetUserID returns the authenticated user, if any
func GetUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
