package models

import "github.com/google/uuid"

// Override scopes a flag may allow. A nil AllowOverride means assignments
// are ignored entirely and the flag always resolves to its default.
const (
	OverrideUser         = "user"
	OverrideOrganization = "organization"
)

type FeatureFlag struct {
	Base
	Name          string  `gorm:"not null" json:"name"`
	Key           string  `gorm:"uniqueIndex;not null" json:"key"`
	Description   *string `json:"description"`
	AllowOverride *string `gorm:"type:varchar(20)" json:"allow_override"`
	DefaultValue  bool    `gorm:"not null;default:false" json:"default_value"`
}

func (FeatureFlag) TableName() string {
	return "feature_flags"
}

// AllowsOverrideFor reports whether the flag accepts assignments for the
// given subject scope.
func (f *FeatureFlag) AllowsOverrideFor(scope string) bool {
	return f.AllowOverride != nil && *f.AllowOverride == scope
}

// FeatureFlagAssignment attaches an override value to exactly one of
// {user, organization}; the check constraint rejects rows with both or
// neither subject set. A nil Value means "inherit the flag default", which
// is distinct from having no assignment row at all.
type FeatureFlagAssignment struct {
	Base
	FeatureFlagID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"feature_flag_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index;check:chk_one_subject,(user_id IS NULL) <> (organization_id IS NULL)" json:"organization_id"`
	Value          *bool      `json:"value"`

	FeatureFlag  *FeatureFlag  `gorm:"foreignKey:FeatureFlagID;constraint:OnDelete:CASCADE" json:"-"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FeatureFlagAssignment) TableName() string {
	return "feature_flag_assignments"
}
