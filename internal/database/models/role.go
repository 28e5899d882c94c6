package models

import "github.com/google/uuid"

type Role struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	Key         string  `gorm:"uniqueIndex;not null" json:"key"`
	Description *string `json:"description"`
	// AssignedOnSignUp roles are granted automatically to new users in the
	// default organization.
	AssignedOnSignUp bool `gorm:"default:false" json:"assigned_on_signup"`

	// Relationships
	Permissions []Permission `gorm:"many2many:permissions_to_roles;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleToUser assigns a role to a user inside one organization. The
// organization id is part of the primary key: a grant never crosses tenant
// boundaries.
type RoleToUser struct {
	RoleID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"role_id"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"organization_id"`

	Role         *Role         `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role,omitempty"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RoleToUser) TableName() string {
	return "roles_to_users"
}
