package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schooladmin/internal/microservices/http-api/service"
)

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// The token comes from "Authorization: Bearer <token>"; when allowQuery is set a
// "token" query parameter is accepted too, since browsers cannot set headers on
// websocket upgrades.
func AuthMiddleware(authService service.AuthService, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			tokenString = c.Query("token")
			ok = tokenString != ""
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Set operator info in context for handlers to use
		c.Set("claims", claims)
		c.Set("subject", claims.Subject)
		c.Set("scopes", claims.Scopes)
		c.Set("role", claims.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2) // 0 is Bearer, 1 is token
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// RequireScopes checks that the token carries every required scope.
func RequireScopes(requiredScopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenScopes, ok := c.Get("scopes")
		scopes, isSlice := tokenScopes.([]string)
		if !ok || !isSlice {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "scopes not found in token"})
			return
		}

		if !hasAllScopes(scopes, requiredScopes) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "insufficient scopes",
				"required": requiredScopes,
				"granted":  scopes,
			})
			return
		}

		c.Next()
	}
}

// hasAllScopes treats "*" as every scope and "prefix:*" as every scope under prefix.
func hasAllScopes(tokenScopes, requiredScopes []string) bool {
	scopeMap := make(map[string]bool, len(tokenScopes))
	for _, scope := range tokenScopes {
		scopeMap[scope] = true
	}
	if scopeMap["*"] {
		return true
	}

	for _, required := range requiredScopes {
		if !scopeMap[required] && !matchesWildcardScope(tokenScopes, required) {
			return false
		}
	}
	return true
}

func matchesWildcardScope(tokenScopes []string, required string) bool {
	for _, scope := range tokenScopes {
		if prefix, ok := strings.CutSuffix(scope, "*"); ok && strings.HasPrefix(required, prefix) {
			return true
		}
	}
	return false
}

// RequireRole checks if the operator has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not found in token"})
			return
		}

		if role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"required": requiredRole,
				"current":  role,
			})
			return
		}

		c.Next()
	}
}

// RequireAdmin is a convenience function for requiring admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(service.RoleAdmin)
}
