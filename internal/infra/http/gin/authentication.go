package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"roomstay/internal/domain/auth"
	"roomstay/internal/domain/shared/apperr"
)

const principalContextKey = "roomstay.principal"

// Claims are issued by the identity service: the user id and one role.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves an HS256 bearer token into a principal. Requests
// without a valid token continue anonymously; handlers decide.
type AuthMiddleware struct {
	Secret []byte
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || len(m.Secret) == 0 {
		c.Next()
		return
	}
	p, err := m.parse(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.DebugContext(c.Request.Context(), "token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, p)
	c.Next()
}

func (m AuthMiddleware) parse(raw string) (auth.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		return auth.Principal{}, err
	}
	role, ok := auth.ParseRole(claims.Role)
	if !ok {
		return auth.Principal{}, errors.New("unknown role " + claims.Role)
	}
	id := strings.TrimSpace(claims.ID)
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return auth.Principal{}, errors.New("token carries no user id")
	}
	return auth.Principal{ID: id, Role: role}, nil
}

// SignToken issues a token the middleware accepts; used by tooling and tests.
func SignToken(secret []byte, userID string, role auth.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:   userID,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func currentPrincipal(c *gin.Context) (auth.Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return auth.Principal{}, false
	}
	p, ok := val.(auth.Principal)
	return p, ok
}

// requireAuth answers 401 for anonymous callers. Role checks happen in the
// command pipeline so every transport gets the same answer.
func requireAuth(c *gin.Context) (auth.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Kind: apperr.Unauthorized, Message: "authentication required"})
		return auth.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
