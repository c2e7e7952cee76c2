package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "loanport.io/portal/internal/pkg/errors"
)

// Principal kinds carried in the token.
const (
	KindBorrower = "borrower"
	KindBroker   = "broker"
)

// JWTClaims defines the portal's custom JWT claims.
type JWTClaims struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"` // borrower or broker
	jwt.RegisteredClaims
}

// JWTConfig holds JWT signing configuration.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	ExpiresIn  time.Duration
}

// GenerateToken creates a signed JWT for the given principal.
func GenerateToken(cfg JWTConfig, actorID, name, kind string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)

	claims := JWTClaims{
		ActorID: actorID,
		Name:    name,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// JWTAuth returns a Gin middleware that validates Bearer tokens and
// populates the actor context.
func JWTAuth(signingKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, apperrors.CodeAuthFailed, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, apperrors.CodeAuthFailed, "invalid authorization header format")
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return signingKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, apperrors.CodeTokenExpired, "token expired")
				return
			}
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "invalid token")
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid || claims.ActorID == "" {
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "invalid token claims")
			return
		}

		c.Set(string(ctxKeyActorID), claims.ActorID)
		c.Set(string(ctxKeyActorKind), claims.Kind)
		c.Request = c.Request.WithContext(
			SetActorContext(c.Request.Context(), claims.ActorID, claims.Name, claims.Kind),
		)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    code,
		"message": message,
	})
}
