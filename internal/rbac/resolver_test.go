package rbac_test

import (
	"testing"

	"github.com/sidrstudio/atlas/internal/rbac"
	"github.com/sidrstudio/atlas/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsByUser_GroupsPerOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	defaultOrg := testutil.CreateDefaultOrg(t, db)
	otherOrg := testutil.CreateTestOrg(t, db, "Acme")
	user := testutil.CreateTestUser(t, db, defaultOrg, otherOrg)

	adminRole := testutil.CreateTestRole(t, db, "admin", rbac.PermReadUsers, rbac.PermWriteUsers)
	viewerRole := testutil.CreateTestRole(t, db, "viewer", rbac.PermReadRoles)

	testutil.GrantRole(t, db, user, adminRole, defaultOrg)
	testutil.GrantRole(t, db, user, viewerRole, otherOrg)

	perms, err := resolver.PermissionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)

	byOrg := make(map[string]rbac.OrgPermissions)
	for _, p := range perms {
		byOrg[p.OrganizationID.String()] = p
	}

	defaultPerms := byOrg[defaultOrg.ID.String()]
	assert.True(t, defaultPerms.IsDefault)
	assert.ElementsMatch(t, []string{rbac.PermReadUsers, rbac.PermWriteUsers}, defaultPerms.Keys)

	otherPerms := byOrg[otherOrg.ID.String()]
	assert.False(t, otherPerms.IsDefault)
	assert.ElementsMatch(t, []string{rbac.PermReadRoles}, otherPerms.Keys)
}

func TestPermissionsByUser_RoleWithoutPermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	role := testutil.CreateTestRole(t, db, "empty")
	testutil.GrantRole(t, db, user, role, org)

	perms, err := resolver.PermissionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Empty(t, perms[0].Keys)
}

func TestPermissionsByUser_NoRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	perms, err := resolver.PermissionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestAuthorize_DefaultOrgScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	defaultOrg := testutil.CreateDefaultOrg(t, db)
	otherOrg := testutil.CreateTestOrg(t, db, "Acme")
	user := testutil.CreateTestUser(t, db, defaultOrg, otherOrg)

	role := testutil.CreateTestRole(t, db, "admin", rbac.PermReadUsers)
	testutil.GrantRole(t, db, user, role, otherOrg)

	// The grant lives in a non-default organization, so the default-org
	// gate denies it
	granted, err := resolver.Authorize(ctx, user.ID, rbac.Key(rbac.PermReadUsers))
	require.NoError(t, err)
	assert.False(t, granted)

	testutil.GrantRole(t, db, user, role, defaultOrg)

	granted, err = resolver.Authorize(ctx, user.ID, rbac.Key(rbac.PermReadUsers))
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestAuthorize_AllOfRequirement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	org := testutil.CreateDefaultOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	role := testutil.CreateTestRole(t, db, "reader", rbac.PermReadUsers)
	testutil.GrantRole(t, db, user, role, org)

	granted, err := resolver.Authorize(ctx, user.ID,
		rbac.AllOf(rbac.PermReadUsers, rbac.PermWriteUsers))
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = resolver.Authorize(ctx, user.ID,
		rbac.AnyOf(rbac.PermReadUsers, rbac.PermWriteUsers))
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestAuthorizeInOrg_ExplicitScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := rbac.NewResolver(db)
	ctx := testutil.TestContext(t)

	defaultOrg := testutil.CreateDefaultOrg(t, db)
	otherOrg := testutil.CreateTestOrg(t, db, "Acme")
	user := testutil.CreateTestUser(t, db, defaultOrg, otherOrg)

	role := testutil.CreateTestRole(t, db, "admin", rbac.PermWriteRoles)
	testutil.GrantRole(t, db, user, role, otherOrg)

	granted, err := resolver.AuthorizeInOrg(ctx, user.ID, otherOrg.ID, rbac.Key(rbac.PermWriteRoles))
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = resolver.AuthorizeInOrg(ctx, user.ID, defaultOrg.ID, rbac.Key(rbac.PermWriteRoles))
	require.NoError(t, err)
	assert.False(t, granted)
}
