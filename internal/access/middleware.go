package access

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CallerKey is the gin context key holding the authenticated caller
// address.
const CallerKey = "caller_address"

// Identity extracts the caller address from a bearer token and stores it
// in the request context. Signature verification belongs to the gateway;
// here the subject claim is the ledger address.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(CallerKey, subject)
		c.Next()
	}
}

// Require asserts that the caller holds the given permission bit before
// the handler runs.
func Require(authorizer Authorizer, permission uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetString(CallerKey)
		if caller == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity not established"})
			return
		}

		grant, err := authorizer.GrantFor(c.Request.Context(), caller)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
			return
		}
		if !grant.Allows(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "caller lacks required permission"})
			return
		}

		c.Next()
	}
}

// Caller returns the authenticated caller address from the gin context.
func Caller(c *gin.Context) string {
	return c.GetString(CallerKey)
}
