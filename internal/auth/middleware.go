package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "auth.claims"

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the context.
func Middleware(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Parse(BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			msg := "Token inválido o expirado"
			if errors.Is(err, ErrMissingToken) {
				msg = "Token no proporcionado"
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// FromContext returns the claims stored by Middleware.
func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// RequireAdmin must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok || !claims.Admin() {
			abort(c, http.StatusForbidden, "Acceso denegado")
			return
		}
		c.Next()
	}
}

// RequireOwner lets through admins and the user named by the path parameter.
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Token no proporcionado")
			return
		}
		if !claims.Admin() && !strings.EqualFold(claims.Username, c.Param(param)) {
			abort(c, http.StatusForbidden, "Acceso denegado")
			return
		}
		c.Next()
	}
}
