package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type key string

const userKey key = "user"

// User is the authenticated caller carried in the request context.
type User struct {
	ID       string
	Username string
	Role     string
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

// IssueToken signs an HS256 token for the user that expires after ttl.
func IssueToken(secret []byte, u User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates tokenStr and returns the user it was issued for.
func ParseToken(secret []byte, tokenStr string) (User, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return User{}, jwt.ErrTokenInvalidClaims
	}
	id, _ := claims["user_id"].(string)
	if id == "" {
		return User{}, jwt.ErrTokenInvalidClaims
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return User{ID: id, Username: username, Role: role}, nil
}

func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			u, err := ParseToken(secret, tokenStr)
			if err != nil {
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// Use after JWTMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := GetUser(r.Context())
		if !ok {
			writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !u.IsAdmin() {
			writeError(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u User) context.Context {
	if h, ok := ctx.Value(holderKey).(*userHolder); ok {
		h.u, h.ok = u, true
	}
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the authenticated user, if any.
func GetUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// GetUserID returns the authenticated user's id, if any.
func GetUserID(ctx context.Context) (string, bool) {
	u, ok := GetUser(ctx)
	return u.ID, ok
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
