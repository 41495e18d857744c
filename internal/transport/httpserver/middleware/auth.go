package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"carbon-tracker-go/internal/config"
	userdomain "carbon-tracker-go/internal/domain/user"
	"carbon-tracker-go/internal/metrics"
	"carbon-tracker-go/pkg/logger"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const accessTokenCookie = "sb-access-token"

var errInvalidToken = errors.New("invalid token")

type SupabaseAuth struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[identity]
	users    UserEnsurer
	skipAuth bool
	mockUser identity
	log      logger.Logger
}

type contextKey int

const userKey contextKey = iota

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Sub          string         `json:"sub"`
	UserMetadata map[string]any `json:"user_metadata"`
	User         struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	} `json:"user"`
}

type identity struct {
	AuthID string
	Email  string
	Name   string
}

// User is the authenticated caller: the local integer id plus the identity
// the auth provider reported.
type User struct {
	ID     int64
	AuthID string
	Email  string
	Name   string
}

type UserEnsurer interface {
	EnsureUser(ctx context.Context, identity userdomain.Identity) (*userdomain.User, error)
}

func NewSupabaseAuth(cfg config.SupabaseConfig, users UserEnsurer, log logger.Logger) *SupabaseAuth {
	timeout := cfg.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	a := &SupabaseAuth{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.PublishableKey,
		client:   &http.Client{Timeout: timeout},
		users:    users,
		skipAuth: cfg.SkipAuth,
		mockUser: identity{
			AuthID: strings.TrimSpace(cfg.MockUserID),
			Email:  strings.TrimSpace(cfg.MockUserEmail),
			Name:   strings.TrimSpace(cfg.MockUserName),
		},
		log: log,
	}
	a.breaker = gobreaker.NewCircuitBreaker[identity](gobreaker.Settings{
		Name:        "supabase-auth",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetAuthBreakerState(int(to))
			log.Warn("auth: breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// a rejected token or a caller that went away says nothing about
		// the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errInvalidToken) || errors.Is(err, context.Canceled)
		},
	})
	return a
}

func (a *SupabaseAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ident identity
		if a.skipAuth {
			ident = a.mockUser
			if ident.AuthID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
		} else {
			if a.baseURL == "" || a.apiKey == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
				return
			}

			token, ok := accessToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			if r.Context().Err() != nil {
				a.log.Debug("auth: client gone before verification", "err", r.Context().Err())
				return
			}

			var err error
			ident, err = a.breaker.Execute(func() (identity, error) {
				return a.fetchIdentity(r.Context(), token)
			})
			if err != nil {
				switch {
				case errors.Is(err, errInvalidToken):
					unauthorized(w)
				case errors.Is(err, context.Canceled):
					a.log.Debug("auth: client gone during verification")
				case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
					a.log.BusinessError("auth: provider circuit open", err)
					writeError(w, http.StatusServiceUnavailable, "auth_unavailable", "auth provider unavailable")
				default:
					a.log.InternalError("auth: provider request failed", err)
					writeError(w, http.StatusServiceUnavailable, "auth_unavailable", "auth provider unavailable")
				}
				return
			}
		}

		local, err := a.users.EnsureUser(r.Context(), userdomain.Identity{
			AuthID: ident.AuthID,
			Email:  ident.Email,
			Name:   ident.Name,
		})
		if err != nil {
			a.log.InternalError("auth: ensure user failed", err, "auth_id", ident.AuthID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithUser(r.Context(), User{
			ID:     local.ID,
			AuthID: ident.AuthID,
			Email:  ident.Email,
			Name:   ident.Name,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *SupabaseAuth) fetchIdentity(ctx context.Context, token string) (identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return identity{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return identity{}, errInvalidToken
	case resp.StatusCode >= http.StatusInternalServerError:
		return identity{}, fmt.Errorf("auth provider returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return identity{}, errInvalidToken
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return identity{}, errInvalidToken
	}

	authID := firstNonEmpty(payload.ID, payload.Sub, payload.User.ID, payload.User.Sub)
	if authID == "" {
		return identity{}, errInvalidToken
	}

	return identity{
		AuthID: authID,
		Email:  payload.Email,
		Name:   firstNonEmpty(stringFromMap(payload.UserMetadata, "name"), stringFromMap(payload.UserMetadata, "full_name")),
	}, nil
}

// accessToken prefers the Authorization header and falls back to the
// session cookie set by the web client.
func accessToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	cookie, err := r.Cookie(accessTokenCookie)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return strings.TrimSpace(cookie.Value), true
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID <= 0 {
		return User{}, false
	}
	return user, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func stringFromMap(values map[string]any, key string) string {
	if values == nil {
		return ""
	}
	parsed, _ := values[key].(string)
	return parsed
}
