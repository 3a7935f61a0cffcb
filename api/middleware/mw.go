package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lemo-app/lemo-dashboard/internal/authn"
	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/internal/cache"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	SessionKey   contextKey = "session"
	requestIDKey contextKey = "request_id"
)

// RequestIDHeader carries the request id to and from the Lemo API.
const RequestIDHeader = "X-Request-ID"

// Session is the signed-in user of a request and the bearer token that
// authenticates them against the Lemo API.
type Session struct {
	Token string
	User  *models.User
}

// ProfileLoader resolves a bearer token into its owner.
type ProfileLoader interface {
	GetMe(ctx context.Context, token string) (*models.User, error)
}

// statusError is implemented by upstream errors that carry a status code.
type statusError interface {
	error
	StatusCode() int
}

// SessionFrom returns the session stored by SessionMiddleware.
func SessionFrom(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*Session)
	return sess, ok && sess != nil && sess.User != nil
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// RequestID returns the id assigned by WithLogger, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logger := log.With().
				Str("request_id", requestID).
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Time("timestamp", time.Now()).
				Logger()

			// Add the logger and request id to the context
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, requestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

// SessionMiddleware resolves the session cookie into a Session and adds it to
// the request context. Requests without a usable session get a 401.
func SessionMiddleware(cookieName string, loader ProfileLoader, profiles cache.ProfileCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				logger := zerolog.Ctx(r.Context()).With().
					Str("handler", "SessionMiddleware").Logger()

				cookie, err := r.Cookie(cookieName)
				if err != nil || cookie.Value == "" {
					logger.Debug().Msg("session cookie missing")
					writeError(w, http.StatusUnauthorized, "not signed in")
					return
				}
				token := cookie.Value

				if err := authn.CheckExpiry(token, time.Now()); err != nil {
					logger.Info().Err(err).Msg("session token rejected")
					ClearSessionCookie(w, cookieName)
					writeError(w, http.StatusUnauthorized, "session expired")
					return
				}

				user, err := loadUser(r.Context(), token, loader, profiles)
				if err != nil {
					var se statusError
					if errors.As(err, &se) && se.StatusCode() == http.StatusUnauthorized {
						logger.Info().Err(err).Msg("session token refused by the API")
						ClearSessionCookie(w, cookieName)
						writeError(w, http.StatusUnauthorized, "session expired")
						return
					}
					logger.Error().Err(err).Msg("failed to load the signed-in user")
					writeError(w, http.StatusBadGateway, "failed to load the signed-in user")
					return
				}

				ctx := WithSession(r.Context(), &Session{Token: token, User: user})
				ctx = logger.With().Str("user_id", user.ID).Logger().WithContext(ctx)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

func loadUser(ctx context.Context, token string, loader ProfileLoader, profiles cache.ProfileCache) (*models.User, error) {
	logger := zerolog.Ctx(ctx)

	if profiles != nil {
		user, ok, err := profiles.Get(ctx, token)
		if err != nil {
			logger.Warn().Err(err).Msg("profile cache lookup failed")
		} else if ok {
			return user, nil
		}
	}

	user, err := loader.GetMe(ctx, token)
	if err != nil {
		return nil, err
	}

	if profiles != nil {
		if err := profiles.Set(ctx, token, user); err != nil {
			logger.Warn().Err(err).Msg("failed to cache profile")
		}
	}
	return user, nil
}

// RequireTypes rejects sessions whose user type is not one of allowed.
func RequireTypes(allowed ...models.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				sess, ok := SessionFrom(r.Context())
				if !ok {
					writeError(w, http.StatusUnauthorized, "not signed in")
					return
				}
				if !authz.CanAccess(sess.User, allowed...) {
					zerolog.Ctx(r.Context()).Warn().Str("type", string(sess.User.Type)).
						Msg("user type not allowed")
					writeError(w, http.StatusForbidden, "forbidden")
					return
				}
				next.ServeHTTP(w, r)
			},
		)
	}
}

// writeError answers with the same failed models.Response the services use.
func writeError(w http.ResponseWriter, statusCode int, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(models.Response{Success: 0, ErrorDetails: details}); err != nil {
		log.Error().Err(err).Msg("failed to encode error response")
	}
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
