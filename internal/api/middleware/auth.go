package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/rbac"
	"gorm.io/gorm"
)

type contextKey string

const (
	UserIDKey       contextKey = "user_id"
	SessionTokenKey contextKey = "session_token"
)

// Authenticator resolves the session on each request and evaluates the
// route's permission requirement against the caller's default-organization
// capability set. Suspension is checked before permissions: a suspended
// account is 403 no matter what roles it holds.
type Authenticator struct {
	sessions   *auth.Service
	rbac       *rbac.Resolver
	db         *gorm.DB
	cookieName string
}

func NewAuthenticator(sessions *auth.Service, resolver *rbac.Resolver, db *gorm.DB, cookieName string) *Authenticator {
	return &Authenticator{sessions: sessions, rbac: resolver, db: db, cookieName: cookieName}
}

// RequireSession gates a route on a live session only.
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return a.require(rbac.Requirement{})(next)
}

// RequirePermission gates a route on a live session plus a permission
// requirement.
func (a *Authenticator) RequirePermission(req rbac.Requirement) func(http.Handler) http.Handler {
	return a.require(req)
}

func (a *Authenticator) require(req rbac.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := a.sessionToken(r)

			session, err := a.sessions.SessionByToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			var user models.User
			if err := a.db.WithContext(r.Context()).First(&user, "id = ?", session.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					unauthorized(w)
					return
				}
				internalError(w, err)
				return
			}

			if user.Suspended() {
				writeError(w, dto.ErrorResponse{
					StatusCode:  http.StatusForbidden,
					Message:     "Access forbidden",
					Description: "Your account is suspended",
				})
				return
			}

			if !req.Zero() {
				granted, err := a.rbac.Authorize(r.Context(), session.UserID, req)
				if err != nil {
					internalError(w, err)
					return
				}
				if !granted {
					unauthorized(w)
					return
				}
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, session.UserID)
			ctx = context.WithValue(ctx, SessionTokenKey, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken reads the session cookie, falling back to a Bearer header
// for non-browser clients.
func (a *Authenticator) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, dto.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Message:    "User is not authenticated",
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeError(w, dto.ErrorResponse{
		StatusCode:  http.StatusInternalServerError,
		Message:     "Internal Server Error",
		Description: err.Error(),
	})
}

func writeError(w http.ResponseWriter, resp dto.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
