package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/teamgrid/community-system/services"
)

type contextKey string

const userContextKey contextKey = "user"

const (
	jwtClaimUserID  = "user_id"
	jwtClaimSession = "session"
)

// Authenticator проверяет Bearer-токен и связанную с ним сессию в БД.
// JWT сам по себе недостаточен: после логаута сессия закрыта, и токен
// перестаёт приниматься, хотя срок его действия ещё не вышел.
type Authenticator struct {
	jwtSecret   []byte
	authService services.AuthService
}

func NewAuthenticator(jwtSecret string, authService services.AuthService) *Authenticator {
	return &Authenticator{
		jwtSecret:   []byte(jwtSecret),
		authService: authService,
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")
		if authorizationHeader == "" {
			unauthorized(w, "authorization header is required")
			return
		}

		headerParts := strings.Split(authorizationHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			unauthorized(w, "invalid authorization header format")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(headerParts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			unauthorized(w, "invalid or expired token")
			return
		}

		sessionToken, ok := claims[jwtClaimSession].(string)
		if !ok || sessionToken == "" {
			unauthorized(w, "invalid token claims")
			return
		}

		session, err := a.authService.GetSessionByToken(r.Context(), sessionToken)
		if err != nil || !session.Active() {
			unauthorized(w, "session is closed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"error\": %q}\n", message)
}

// GetUserIDFromContext извлекает идентификатор пользователя из claims,
// положенных в контекст Authenticate.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context or invalid type")
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	// Числовые claims после json.Unmarshal приходят как float64.
	userIDFloat, ok := userIDClaim.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64, got %T", jwtClaimUserID, userIDClaim)
	}

	userID := int(userIDFloat)
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}
