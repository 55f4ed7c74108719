package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// NameKey is the context key for storing the authenticated user's name.
	NameKey contextKey = "name"
	// UserKey is the context key for the member resolved from the session cookie.
	UserKey contextKey = "user"
)

// GetUserID extracts the user ID from the context.
// Returns 0 if not found.
func GetUserID(ctx context.Context) int64 {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	userID, _ := ctx.Value(UserIDKey).(int64)
	return userID
}

// GetName extracts the user name from the context.
// Returns empty string if not found.
func GetName(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Name
	}
	name, _ := ctx.Value(NameKey).(string)
	return name
}

// GetUser returns the member resolved by Session, or nil.
func GetUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserKey).(*models.User)
	return u
}

// WithUser stores a resolved member in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, NameKey, claims.Name)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

// RequireAuth returns a middleware that validates session tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and name to the request context.
func RequireAuth(sessions *auth.SessionManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := sessions.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(withClaims(ctx, claims), req)
		}
	}
}

// OptionalAuth returns a middleware that validates session tokens if present, but allows
// requests without authentication.
func OptionalAuth(sessions *auth.SessionManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token, err := bearerToken(req.Header().Get("Authorization")); err == nil {
				// Invalid tokens are ignored here
				if claims, err := sessions.Validate(token); err == nil {
					ctx = withClaims(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}

// UserLookup resolves a member by ID.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Session resolves the session cookie to a member and stores it in the
// request context. Requests without a valid cookie, or whose member no
// longer exists, pass through anonymously.
func Session(sessions *auth.SessionManager, cookieName string, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.Validate(cookie.Value)
			if err != nil {
				slog.Debug("Ignoring invalid session cookie", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Debug("Session user not found", "user_id", claims.UserID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
