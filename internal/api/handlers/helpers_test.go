package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sidrstudio/atlas/internal/api"
	"github.com/sidrstudio/atlas/internal/flags"
	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/internal/testutil"
)

var allPermissions = []string{
	rbac.PermReadUsers, rbac.PermWriteUsers,
	rbac.PermReadOrganizations, rbac.PermWriteOrganizations,
	rbac.PermReadRoles, rbac.PermWriteRoles,
	rbac.PermReadPermissions, rbac.PermWritePermissions,
	rbac.PermReadFeatureFlags, rbac.PermWriteFeatureFlags,
}

// newTestRouter wires the full route tree against the test database. No
// Redis, no S3: the file routes stay unmounted and OTP mail is captured.
func newTestRouter(t *testing.T, tc *testutil.TestSetup) http.Handler {
	t.Helper()

	return api.NewRouter(api.RouterConfig{
		DB:          tc.DB,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		AuthService: tc.Auth,
		RBAC:        rbac.NewResolver(tc.DB),
		Flags:       flags.NewResolver(tc.DB),
		CookieName:  testutil.SessionCookieName,
	})
}

// dataEnvelope unwraps the {"data": ...} success envelope.
type dataEnvelope struct {
	Data map[string]any `json:"data"`
}

// listEnvelope unwraps a paginated list response.
type listEnvelope struct {
	Data struct {
		Data       []map[string]any `json:"data"`
		PageCount  int64            `json:"pageCount"`
		TotalCount int64            `json:"totalCount"`
	} `json:"data"`
}
