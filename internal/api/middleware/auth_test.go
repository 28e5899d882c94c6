package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/middleware"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthenticator(t *testing.T, db *gorm.DB) *middleware.Authenticator {
	t.Helper()
	service, _ := testutil.NewTestAuthService(db)
	return middleware.NewAuthenticator(service, rbac.NewResolver(db), db, testutil.SessionCookieName)
}

func TestRequireSession_ValidCookie(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	handler := authn.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, user.ID, middleware.GetUserID(r.Context()))
		assert.Equal(t, token, middleware.GetSessionToken(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: testutil.SessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession_BearerFallback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	handler := authn.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, user.ID, middleware.GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession_NoToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	authn := newAuthenticator(t, db)

	handler := authn.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User is not authenticated")
}

func TestRequireSession_ExpiredSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	require.NoError(t, db.Model(&models.Session{}).
		Where("session_token = ?", token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	handler := authn.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: testutil.SessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_SuspendedUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	now := time.Now()
	require.NoError(t, db.Model(user).Update("suspended_at", &now).Error)

	handler := authn.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: testutil.SessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your account is suspended")
}

func TestRequirePermission_Granted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	role := testutil.CreateTestRole(t, db, "admin", rbac.PermReadUsers)
	testutil.GrantRole(t, db, user, role, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	handler := authn.RequirePermission(rbac.Key(rbac.PermReadUsers))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: testutil.SessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission_Denied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	role := testutil.CreateTestRole(t, db, "viewer", rbac.PermReadUsers)
	testutil.GrantRole(t, db, user, role, org)
	token := testutil.CreateSession(t, db, user)
	authn := newAuthenticator(t, db)

	handler := authn.RequirePermission(rbac.Key(rbac.PermWriteUsers))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}))

	req := httptest.NewRequest("POST", "/api/v1/users", nil)
	req.AddCookie(&http.Cookie{Name: testutil.SessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Missing permissions render as 401, not 403
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User is not authenticated")
}

func TestGetUserID_NotInContext(t *testing.T) {
	assert.Equal(t, uuid.Nil, middleware.GetUserID(context.Background()))
	assert.Equal(t, "", middleware.GetSessionToken(context.Background()))
}
