package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loanport.io/portal/internal/pkg/errors"
)

var testSigningKey = []byte("test-signing-key-1234567890123456")

func jwtTestRouter(key []byte) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(key))
	router.GET("/whoami", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"actor_id": GetActorID(ctx),
			"kind":     GetActorKind(ctx),
		})
	})
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "loanport", ExpiresIn: time.Hour}
	token, expiresAt, err := GenerateToken(cfg, "u-1", "Alice Broker", KindBroker)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u-1", body["actor_id"])
	assert.Equal(t, KindBroker, body["kind"])
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeAuthFailed, body["code"])
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abcdef")
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeAuthFailed, body["code"])
}

func TestJWTAuth_WrongKey(t *testing.T) {
	cfg := JWTConfig{SigningKey: []byte("other-key-9876543210987654321098"), Issuer: "loanport", ExpiresIn: time.Hour}
	token, _, err := GenerateToken(cfg, "u-1", "Alice", KindBorrower)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeTokenInvalid, body["code"])
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "loanport", ExpiresIn: -time.Minute}
	token, _, err := GenerateToken(cfg, "u-1", "Alice", KindBorrower)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeTokenExpired, body["code"])
}

func TestJWTAuth_RejectsNoneSigningMethod(t *testing.T) {
	now := time.Now()
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		ActorID: "u-1",
		Kind:    KindBorrower,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "loanport",
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_RejectsEmptyActorID(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "loanport", ExpiresIn: time.Hour}
	token, _, err := GenerateToken(cfg, "", "Nobody", KindBorrower)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	jwtTestRouter(testSigningKey).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeTokenInvalid, body["code"])
}
