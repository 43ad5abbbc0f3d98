package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": Caller(c)})
	})
	return r
}

func request(t *testing.T, r *gin.Engine, token string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityAcceptsSignedToken(t *testing.T) {
	r := identityRouter("secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "owner-1"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	w := request(t, r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "owner-1")
}

func TestIdentityRejectsUnsignedAlgorithm(t *testing.T) {
	r := identityRouter("secret")

	// alg=none must never pass, whatever the claims say.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "intruder"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w := request(t, r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityRejectsWrongSecret(t *testing.T) {
	r := identityRouter("secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "owner-1"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)

	w := request(t, r, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityRejectsMissingToken(t *testing.T) {
	w := request(t, identityRouter("secret"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGrantAllows(t *testing.T) {
	grant := Grant{Active: true, Permissions: PermRegisterProject | PermVerifyProject}

	assert.True(t, grant.Allows(PermVerifyProject))
	assert.False(t, grant.Allows(PermMintCredits))

	grant.Active = false
	assert.False(t, grant.Allows(PermVerifyProject))
}
