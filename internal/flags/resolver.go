// Package flags resolves feature-flag values with most-specific-wins
// precedence: user-level assignment, then organization-level assignment,
// then the flag's default. The precedence is an explicit ordered list of
// strategies with a terminal default, not a chain of nullable lookups.
package flags

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"gorm.io/gorm"
)

type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// strategy returns (value, decided). An assignment row with a nil value
// means "inherit default": it exists but never decides.
type strategy func(ctx context.Context, flag *models.FeatureFlag, userID uuid.UUID) (bool, bool, error)

// Resolve returns the effective value of the flag for the user. A flag
// without an override scope ignores assignments entirely.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	flag, err := r.flagByKey(ctx, key)
	if err != nil {
		return false, err
	}

	strategies := []strategy{r.userOverride, r.organizationOverride}
	for _, s := range strategies {
		value, decided, err := s(ctx, flag, userID)
		if err != nil {
			return false, apperror.From(err)
		}
		if decided {
			return value, nil
		}
	}

	return flag.DefaultValue, nil
}

// ResolveInOrg is Resolve with the organization-level lookup pinned to one
// organization instead of scanning all of the user's memberships.
func (r *Resolver) ResolveInOrg(ctx context.Context, userID, orgID uuid.UUID, key string) (bool, error) {
	flag, err := r.flagByKey(ctx, key)
	if err != nil {
		return false, err
	}

	value, decided, err := r.userOverride(ctx, flag, userID)
	if err != nil {
		return false, apperror.From(err)
	}
	if decided {
		return value, nil
	}

	if flag.AllowsOverrideFor(models.OverrideOrganization) {
		var assignment models.FeatureFlagAssignment
		err := r.db.WithContext(ctx).
			Where("feature_flag_id = ? AND organization_id = ?", flag.ID, orgID).
			First(&assignment).Error
		if err == nil && assignment.Value != nil {
			return *assignment.Value, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.From(err)
		}
	}

	return flag.DefaultValue, nil
}

func (r *Resolver) userOverride(ctx context.Context, flag *models.FeatureFlag, userID uuid.UUID) (bool, bool, error) {
	if !flag.AllowsOverrideFor(models.OverrideUser) {
		return false, false, nil
	}

	var assignment models.FeatureFlagAssignment
	err := r.db.WithContext(ctx).
		Where("feature_flag_id = ? AND user_id = ?", flag.ID, userID).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if assignment.Value == nil {
		return false, false, nil
	}
	return *assignment.Value, true, nil
}

func (r *Resolver) organizationOverride(ctx context.Context, flag *models.FeatureFlag, userID uuid.UUID) (bool, bool, error) {
	if !flag.AllowsOverrideFor(models.OverrideOrganization) {
		return false, false, nil
	}

	var assignment models.FeatureFlagAssignment
	err := r.db.WithContext(ctx).
		Joins("JOIN users_to_organizations ON users_to_organizations.organization_id = feature_flag_assignments.organization_id").
		Where("feature_flag_assignments.feature_flag_id = ? AND users_to_organizations.user_id = ?", flag.ID, userID).
		Where("feature_flag_assignments.value IS NOT NULL").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return *assignment.Value, true, nil
}

func (r *Resolver) flagByKey(ctx context.Context, key string) (*models.FeatureFlag, error) {
	var flag models.FeatureFlag
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed get feature flag", "Feature flag is not found")
		}
		return nil, apperror.From(err)
	}
	return &flag, nil
}

// FlagValue pairs a flag with its assignment value for one subject. Value
// nil means the assignment inherits the default (or no assignment exists).
type FlagValue struct {
	models.FeatureFlag
	Value *bool `json:"value"`
}

// OrgFlagValue additionally names the organization carrying the override.
type OrgFlagValue struct {
	FlagValue
	OrganizationID uuid.UUID `json:"organization_id"`
}

// Overview is the full flag picture for one user, left to the caller to
// reduce per key with the precedence rule.
type Overview struct {
	Global        []models.FeatureFlag `json:"global"`
	User          []FlagValue          `json:"user"`
	Organizations []OrgFlagValue       `json:"organizations"`
}

// OverviewByUser gathers every flag plus the user-level and org-level
// assignment values visible to the user.
func (r *Resolver) OverviewByUser(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	overview := &Overview{
		Global:        []models.FeatureFlag{},
		User:          []FlagValue{},
		Organizations: []OrgFlagValue{},
	}

	if err := r.db.WithContext(ctx).Find(&overview.Global).Error; err != nil {
		return nil, apperror.From(err)
	}

	userValues, err := r.AssignmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	overview.User = userValues

	var memberships []models.UserToOrganization
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, apperror.From(err)
	}

	for _, m := range memberships {
		orgValues, err := r.AssignmentsForOrganization(ctx, m.OrganizationID)
		if err != nil {
			return nil, err
		}
		for _, v := range orgValues {
			overview.Organizations = append(overview.Organizations, OrgFlagValue{
				FlagValue:      v,
				OrganizationID: m.OrganizationID,
			})
		}
	}

	return overview, nil
}

// AssignmentsForUser lists user-overridable flags with the user's
// assignment value left-joined in.
func (r *Resolver) AssignmentsForUser(ctx context.Context, userID uuid.UUID) ([]FlagValue, error) {
	return r.assignments(ctx, models.OverrideUser, "user_id", userID)
}

// AssignmentsForOrganization lists organization-overridable flags with the
// organization's assignment value left-joined in.
func (r *Resolver) AssignmentsForOrganization(ctx context.Context, orgID uuid.UUID) ([]FlagValue, error) {
	return r.assignments(ctx, models.OverrideOrganization, "organization_id", orgID)
}

func (r *Resolver) assignments(ctx context.Context, scope, subjectColumn string, subjectID uuid.UUID) ([]FlagValue, error) {
	var flagList []models.FeatureFlag
	err := r.db.WithContext(ctx).
		Where("allow_override = ?", scope).
		Order("created_at DESC").
		Find(&flagList).Error
	if err != nil {
		return nil, apperror.From(err)
	}

	values := make([]FlagValue, 0, len(flagList))
	for _, flag := range flagList {
		fv := FlagValue{FeatureFlag: flag}

		var assignment models.FeatureFlagAssignment
		err := r.db.WithContext(ctx).
			Where("feature_flag_id = ? AND "+subjectColumn+" = ?", flag.ID, subjectID).
			First(&assignment).Error
		if err == nil {
			fv.Value = assignment.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.From(err)
		}

		values = append(values, fv)
	}
	return values, nil
}
