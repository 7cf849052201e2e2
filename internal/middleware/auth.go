package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/veilpost/dsa-core/pkg/apperror"
)

// adminClaims extends the registered claims with the role granted to the
// admin by the identity provider.
type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var knownRoles = map[string]bool{
	"moderator": true,
	"legal":     true,
	"admin":     true,
	"root":      true,
}

type AuthMiddleware struct {
	adminSecret   string
	serviceSecret string
}

func NewAuthMiddleware(adminSecret, serviceSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		adminSecret:   adminSecret,
		serviceSecret: serviceSecret,
	}
}

// RequireAdmin authenticates an admin JWT and requires one of the given
// roles. With no roles listed, any known role passes.
func (m *AuthMiddleware) RequireAdmin(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		claims := &adminClaims{}
		if !m.parseToken(c, m.adminSecret, claims) {
			return
		}

		if !knownRoles[claims.Role] {
			abort(c, http.StatusForbidden, apperror.CodeForbidden, "unknown role")
			return
		}
		if len(allowed) > 0 && !allowed[claims.Role] {
			abort(c, http.StatusForbidden, apperror.CodeForbidden, "insufficient role")
			return
		}

		c.Set("admin_sub", claims.Subject)
		c.Set("admin_role", claims.Role)
		c.Next()
	}
}

// RequireService authenticates the service-to-service JWT used by the
// intake endpoints.
func (m *AuthMiddleware) RequireService() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &jwt.RegisteredClaims{}
		if !m.parseToken(c, m.serviceSecret, claims) {
			return
		}

		c.Set("service_sub", claims.Subject)
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(c *gin.Context, secret string, claims jwt.Claims) bool {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		abort(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "authorization required")
		return false
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		abort(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "invalid or expired token")
		return false
	}

	return true
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"errorCode": code, "message": message})
}
