// Package rbac resolves organization-scoped permission sets and evaluates
// authorization requirements against them. Roles bind to users per
// organization, so the same user can hold different capability sets in
// different tenants.
package rbac

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgPermissions is the capability set a user holds inside one
// organization.
type OrgPermissions struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	IsDefault      bool      `json:"is_default_org"`
	Keys           []string  `json:"permissions"`
}

// Has reports whether the set contains the permission key.
func (p OrgPermissions) Has(key string) bool {
	for _, k := range p.Keys {
		if k == key {
			return true
		}
	}
	return false
}

type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

type permissionRow struct {
	OrganizationID uuid.UUID
	IsDefault      bool
	Key            *string
}

// PermissionsByUser traverses user -> role assignment (org scoped) -> role
// -> permission and returns one tuple per organization where the user holds
// at least one role.
func (r *Resolver) PermissionsByUser(ctx context.Context, userID uuid.UUID) ([]OrgPermissions, error) {
	var rows []permissionRow
	err := r.db.WithContext(ctx).
		Table("organizations").
		Select("organizations.id AS organization_id, organizations.is_default, permissions.key").
		Joins("JOIN roles_to_users ON roles_to_users.organization_id = organizations.id").
		Joins("JOIN roles ON roles.id = roles_to_users.role_id").
		Joins("LEFT JOIN permissions_to_roles ON permissions_to_roles.role_id = roles.id").
		Joins("LEFT JOIN permissions ON permissions.id = permissions_to_roles.permission_id").
		Where("roles_to_users.user_id = ?", userID).
		Order("organizations.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[uuid.UUID]*OrgPermissions)
	var order []uuid.UUID
	for _, row := range rows {
		entry, ok := grouped[row.OrganizationID]
		if !ok {
			entry = &OrgPermissions{
				OrganizationID: row.OrganizationID,
				IsDefault:      row.IsDefault,
				Keys:           []string{},
			}
			grouped[row.OrganizationID] = entry
			order = append(order, row.OrganizationID)
		}
		if row.Key != nil && !entry.Has(*row.Key) {
			entry.Keys = append(entry.Keys, *row.Key)
		}
	}

	result := make([]OrgPermissions, 0, len(order))
	for _, id := range order {
		result = append(result, *grouped[id])
	}
	return result, nil
}

// Authorize evaluates the requirement against the user's permission set in
// the default organization. No tuple for that scope means denied.
func (r *Resolver) Authorize(ctx context.Context, userID uuid.UUID, req Requirement) (bool, error) {
	perms, err := r.PermissionsByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, p := range perms {
		if p.IsDefault {
			return req.Satisfied(p.Keys), nil
		}
	}
	return false, nil
}

// AuthorizeInOrg evaluates the requirement against an explicit organization
// scope instead of the default one.
func (r *Resolver) AuthorizeInOrg(ctx context.Context, userID, orgID uuid.UUID, req Requirement) (bool, error) {
	perms, err := r.PermissionsByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, p := range perms {
		if p.OrganizationID == orgID {
			return req.Satisfied(p.Keys), nil
		}
	}
	return false, nil
}
