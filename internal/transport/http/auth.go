package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"live-quiz-service/internal/domain"
)

const callerKey = "caller"

// Claims is the bearer token payload. Subject carries the caller id.
type Claims struct {
	Role    domain.Role `json:"role"`
	ClassID string      `json:"class_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the caller.
func IssueToken(secret string, caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:    caller.Role,
		ClassID: caller.ClassID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry and returns the caller it names.
func ParseToken(tokenString, secret string) (domain.Caller, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Caller{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Caller{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.ClassID == "" {
		return domain.Caller{}, errors.New("token is missing subject or class")
	}
	if claims.Role != domain.RoleTeacher && claims.Role != domain.RoleStudent {
		return domain.Caller{}, errors.New("token carries an unknown role")
	}
	return domain.Caller{ID: claims.Subject, Role: claims.Role, ClassID: claims.ClassID}, nil
}

func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		caller, err := ParseToken(tokenString, secret)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerFrom(c).Role != role {
			abort(c, http.StatusForbidden, "forbidden", "requires role "+string(role))
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) domain.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}
	}
	caller, _ := v.(domain.Caller)
	return caller
}
