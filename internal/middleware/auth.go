package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/projectly-api/internal/auth"
	"github.com/yukikurage/projectly-api/internal/constants"
	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/metrics"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/services"
)

// UserLoader loads the current state of an account.
type UserLoader interface {
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// Authenticator resolves the actor of a request from a bearer token or the
// session cookie.
type Authenticator struct {
	tokens   *auth.TokenIssuer
	denylist auth.Denylist
	users    UserLoader
	log      *zap.Logger
}

// NewAuthenticator creates an Authenticator. denylist may be nil, in which
// case tokens cannot be revoked.
func NewAuthenticator(tokens *auth.TokenIssuer, denylist auth.Denylist, users UserLoader, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, denylist: denylist, users: users, log: log.Named("auth")}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

func reject(c *gin.Context, reason, message string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	apierrors.Unauthorized(c, message)
}

// RequireAuth checks that the request is authenticated and stores the
// actor in the context. The account is reloaded on every request so role
// changes and deletions apply immediately.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint64

		if token, present := bearerToken(c); present {
			if token == "" {
				reject(c, "malformed_header", "Invalid authorization header")
				return
			}
			claims, err := a.tokens.Parse(token)
			if err != nil {
				reject(c, "invalid_token", "Not authorized, token failed")
				return
			}
			if a.denylist != nil {
				revoked, err := a.denylist.IsRevoked(c.Request.Context(), claims.ID)
				if err != nil {
					a.log.Error("denylist lookup failed", zap.Error(err))
					apierrors.ServiceUnavailable(c, "")
					return
				}
				if revoked {
					reject(c, "revoked_token", "Not authorized, token revoked")
					return
				}
			}
			userID, _ = claims.UserID()
			c.Set(constants.ContextKeyTokenID, claims.ID)
			c.Set(constants.ContextKeyTokenExpiresAt, claims.ExpiresAt.Time)
		} else {
			session := sessions.Default(c)
			id, ok := toUint64(session.Get(constants.ContextKeyUserID))
			if !ok {
				reject(c, "missing_credentials", "")
				return
			}
			userID = id
		}

		user, err := a.users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				reject(c, "unknown_user", "Not authorized, user not found")
				return
			}
			a.log.Error("failed to load user", zap.Uint64("user_id", userID), zap.Error(err))
			apierrors.InternalError(c, "")
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, policy.Actor{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// GetActor retrieves the authenticated actor from context
func GetActor(c *gin.Context) (policy.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// GetToken returns the ID and expiry of the bearer token used for the
// request, if any.
func GetToken(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(constants.ContextKeyTokenID)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(constants.ContextKeyTokenExpiresAt), true
}

func toUint64(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
