package flags_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/flags"
	"github.com/sidrstudio/atlas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createFlag(t *testing.T, db *gorm.DB, key string, defaultValue bool, allowOverride *string) *models.FeatureFlag {
	t.Helper()

	flag := &models.FeatureFlag{
		Name:          key,
		Key:           key,
		DefaultValue:  defaultValue,
		AllowOverride: allowOverride,
	}
	if err := db.Create(flag).Error; err != nil {
		t.Fatalf("failed to create feature flag: %v", err)
	}
	return flag
}

func scope(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestResolve_DefaultValue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	createFlag(t, db, "dark-mode", true, nil)

	value, err := resolver.Resolve(ctx, user.ID, "dark-mode")
	require.NoError(t, err)
	assert.True(t, value)
}

func TestResolve_UnknownKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	_, err := resolver.Resolve(ctx, user.ID, "no-such-flag")
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound))
}

func TestResolve_UserOverrideWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	flag := createFlag(t, db, "beta-ui", false, scope(models.OverrideUser))

	_, err := resolver.AssignToUser(ctx, flag.ID, user.ID, boolPtr(true))
	require.NoError(t, err)

	value, err := resolver.Resolve(ctx, user.ID, "beta-ui")
	require.NoError(t, err)
	assert.True(t, value)
}

func TestResolve_NilAssignmentInheritsDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	flag := createFlag(t, db, "beta-ui", true, scope(models.OverrideUser))

	// An assignment with nil value exists but never decides
	_, err := resolver.AssignToUser(ctx, flag.ID, user.ID, nil)
	require.NoError(t, err)

	value, err := resolver.Resolve(ctx, user.ID, "beta-ui")
	require.NoError(t, err)
	assert.True(t, value)
}

func TestResolve_OrganizationOverrideThroughMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	flag := createFlag(t, db, "audit-log", false, scope(models.OverrideOrganization))

	_, err := resolver.AssignToOrganization(ctx, flag.ID, org.ID, boolPtr(true))
	require.NoError(t, err)

	value, err := resolver.Resolve(ctx, user.ID, "audit-log")
	require.NoError(t, err)
	assert.True(t, value)

	// A user outside the organization still sees the default
	outsider := testutil.CreateTestUser(t, db)
	value, err = resolver.Resolve(ctx, outsider.ID, "audit-log")
	require.NoError(t, err)
	assert.False(t, value)
}

func TestResolve_NoOverrideScopeIgnoresAssignments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	flag := createFlag(t, db, "locked", false, nil)

	// Force an assignment row in despite the missing override scope
	value := true
	require.NoError(t, db.Create(&models.FeatureFlagAssignment{
		FeatureFlagID: flag.ID,
		UserID:        &user.ID,
		Value:         &value,
	}).Error)

	resolved, err := resolver.Resolve(ctx, user.ID, "locked")
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestResolveInOrg_PinnedOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	defaultOrg := testutil.CreateDefaultOrg(t, db)
	otherOrg := testutil.CreateTestOrg(t, db, "Acme")
	user := testutil.CreateTestUser(t, db, defaultOrg, otherOrg)
	flag := createFlag(t, db, "audit-log", false, scope(models.OverrideOrganization))

	_, err := resolver.AssignToOrganization(ctx, flag.ID, otherOrg.ID, boolPtr(true))
	require.NoError(t, err)

	value, err := resolver.ResolveInOrg(ctx, user.ID, otherOrg.ID, "audit-log")
	require.NoError(t, err)
	assert.True(t, value)

	value, err = resolver.ResolveInOrg(ctx, user.ID, defaultOrg.ID, "audit-log")
	require.NoError(t, err)
	assert.False(t, value)
}

func TestAssignToUser_Upserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	flag := createFlag(t, db, "beta-ui", false, scope(models.OverrideUser))

	first, err := resolver.AssignToUser(ctx, flag.ID, user.ID, boolPtr(true))
	require.NoError(t, err)
	require.NotNil(t, first.Value)
	assert.True(t, *first.Value)

	second, err := resolver.AssignToUser(ctx, flag.ID, user.ID, boolPtr(false))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Value)
	assert.False(t, *second.Value)

	var count int64
	require.NoError(t, db.Model(&models.FeatureFlagAssignment{}).
		Where("feature_flag_id = ?", flag.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAssign_UnknownFlag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	_, err := resolver.AssignToUser(ctx, uuid.New(), user.ID, boolPtr(true))
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusNotFound))
}

func TestAssign_ScopeMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	orgScoped := createFlag(t, db, "audit-log", false, scope(models.OverrideOrganization))
	_, err := resolver.AssignToUser(ctx, orgScoped.ID, user.ID, boolPtr(true))
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusBadRequest))

	unscoped := createFlag(t, db, "locked", false, nil)
	_, err = resolver.AssignToOrganization(ctx, unscoped.ID, org.ID, boolPtr(true))
	require.Error(t, err)
	assert.True(t, apperror.IsStatus(err, http.StatusBadRequest))
}

func TestAssignmentsForUser_JoinsValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	assigned := createFlag(t, db, "beta-ui", false, scope(models.OverrideUser))
	createFlag(t, db, "new-editor", false, scope(models.OverrideUser))
	createFlag(t, db, "audit-log", false, scope(models.OverrideOrganization))

	_, err := resolver.AssignToUser(ctx, assigned.ID, user.ID, boolPtr(true))
	require.NoError(t, err)

	values, err := resolver.AssignmentsForUser(ctx, user.ID)
	require.NoError(t, err)

	// Only user-overridable flags are listed
	require.Len(t, values, 2)
	byKey := make(map[string]*bool)
	for _, v := range values {
		byKey[v.Key] = v.Value
	}
	require.NotNil(t, byKey["beta-ui"])
	assert.True(t, *byKey["beta-ui"])
	assert.Nil(t, byKey["new-editor"])
}

func TestOverviewByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := flags.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	userFlag := createFlag(t, db, "beta-ui", false, scope(models.OverrideUser))
	orgFlag := createFlag(t, db, "audit-log", true, scope(models.OverrideOrganization))
	createFlag(t, db, "locked", true, nil)

	_, err := resolver.AssignToUser(ctx, userFlag.ID, user.ID, boolPtr(true))
	require.NoError(t, err)
	_, err = resolver.AssignToOrganization(ctx, orgFlag.ID, org.ID, boolPtr(false))
	require.NoError(t, err)

	overview, err := resolver.OverviewByUser(ctx, user.ID)
	require.NoError(t, err)

	assert.Len(t, overview.Global, 3)
	require.Len(t, overview.User, 1)
	assert.Equal(t, "beta-ui", overview.User[0].Key)
	require.Len(t, overview.Organizations, 1)
	assert.Equal(t, org.ID, overview.Organizations[0].OrganizationID)
	assert.Equal(t, "audit-log", overview.Organizations[0].Key)
}
