package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const SessionCookieName = "session"

// SetupTestDB creates an in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.UserToOrganization{},
		&models.Permission{},
		&models.Role{},
		&models.RoleToUser{},
		&models.Session{},
		&models.OtpToken{},
		&models.AuthMethod{},
		&models.FeatureFlag{},
		&models.FeatureFlagAssignment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CaptureMailer records OTP deliveries instead of sending mail
type CaptureMailer struct {
	mu   sync.Mutex
	Sent []CapturedOTP
}

type CapturedOTP struct {
	Recipient string
	OTP       string
}

func (m *CaptureMailer) SendOTP(ctx context.Context, recipient, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, CapturedOTP{Recipient: recipient, OTP: otp})
	return nil
}

// LastOTP returns the most recently captured code, or "" when none was sent
func (m *CaptureMailer) LastOTP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].OTP
}

// NewTestAuthService wires an auth service against the test database with a
// capturing mailer
func NewTestAuthService(db *gorm.DB) (*auth.Service, *CaptureMailer) {
	mailer := &CaptureMailer{}
	codec := auth.NewTokenCodec("test-secret-key-for-testing")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return auth.NewService(db, codec, mailer, logger), mailer
}

// CreateDefaultOrg creates the default organization sign-up joins
func CreateDefaultOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name:      "Default Organization",
		IsDefault: true,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create default organization: %v", err)
	}
	return org
}

// CreateTestOrg creates a non-default organization
func CreateTestOrg(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: name}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateTestUser creates a user and joins it to the given organizations
func CreateTestUser(t *testing.T, db *gorm.DB, orgs ...*models.Organization) *models.User {
	t.Helper()

	user := &models.User{
		Email:           "test-" + uuid.New().String()[:8] + "@example.com",
		Name:            "Test User",
		IsEmailVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	for _, org := range orgs {
		err := db.Create(&models.UserToOrganization{
			UserID:         user.ID,
			OrganizationID: org.ID,
		}).Error
		if err != nil {
			t.Fatalf("failed to join test user to organization: %v", err)
		}
	}

	return user
}

// CreateTestPermission creates a permission row with the given key
func CreateTestPermission(t *testing.T, db *gorm.DB, key string) *models.Permission {
	t.Helper()

	permission := &models.Permission{
		Name: key,
		Key:  key,
	}
	if err := db.Create(permission).Error; err != nil {
		t.Fatalf("failed to create test permission: %v", err)
	}
	return permission
}

// CreateTestRole creates a role holding permission rows for the given keys
func CreateTestRole(t *testing.T, db *gorm.DB, roleKey string, permissionKeys ...string) *models.Role {
	t.Helper()

	role := &models.Role{
		Name: roleKey,
		Key:  roleKey,
	}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("failed to create test role: %v", err)
	}

	for _, key := range permissionKeys {
		permission := CreateTestPermission(t, db, key)
		if err := db.Model(role).Association("Permissions").Append(permission); err != nil {
			t.Fatalf("failed to attach permission to role: %v", err)
		}
	}

	return role
}

// GrantRole assigns the role to the user inside the organization
func GrantRole(t *testing.T, db *gorm.DB, user *models.User, role *models.Role, org *models.Organization) {
	t.Helper()

	err := db.Create(&models.RoleToUser{
		RoleID:         role.ID,
		UserID:         user.ID,
		OrganizationID: org.ID,
	}).Error
	if err != nil {
		t.Fatalf("failed to grant role: %v", err)
	}
}

// CreateSession inserts a live session for the user and returns its token
func CreateSession(t *testing.T, db *gorm.DB, user *models.User) string {
	t.Helper()

	codec := auth.NewTokenCodec("test-secret-key-for-testing")
	token := codec.NewToken()

	err := db.Create(&models.Session{
		SessionToken: token,
		UserID:       user.ID,
		ExpiresAt:    time.Now().Add(time.Hour),
	}).Error
	if err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request carrying the session cookie
func AuthenticatedRequest(t *testing.T, method, path string, body any, sessionToken string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionToken})
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without a session
func UnauthenticatedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds the common test dependencies: a migrated database, the
// default organization, an admin user holding every permission, and a live
// session token for that user
type TestSetup struct {
	DB     *gorm.DB
	Auth   *auth.Service
	Mailer *CaptureMailer
	Org    *models.Organization
	Admin  *models.User
	Token  string
}

// NewTestContext creates a complete test setup
func NewTestContext(t *testing.T, permissionKeys ...string) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	service, mailer := NewTestAuthService(db)
	org := CreateDefaultOrg(t, db)
	admin := CreateTestUser(t, db, org)

	if len(permissionKeys) > 0 {
		role := CreateTestRole(t, db, "admin", permissionKeys...)
		GrantRole(t, db, admin, role, org)
	}

	token := CreateSession(t, db, admin)

	return &TestSetup{
		DB:     db,
		Auth:   service,
		Mailer: mailer,
		Org:    org,
		Admin:  admin,
		Token:  token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
