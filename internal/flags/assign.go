package flags

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"gorm.io/gorm"
)

// AssignToUser upserts a user-level override. The flag must allow user
// overrides; a nil value stores the explicit "inherit default" marker.
func (r *Resolver) AssignToUser(ctx context.Context, flagID, userID uuid.UUID, value *bool) (*models.FeatureFlagAssignment, error) {
	return r.assign(ctx, flagID, models.OverrideUser, "user_id", userID, value)
}

// AssignToOrganization upserts an organization-level override.
func (r *Resolver) AssignToOrganization(ctx context.Context, flagID, orgID uuid.UUID, value *bool) (*models.FeatureFlagAssignment, error) {
	return r.assign(ctx, flagID, models.OverrideOrganization, "organization_id", orgID, value)
}

func (r *Resolver) assign(ctx context.Context, flagID uuid.UUID, scope, subjectColumn string, subjectID uuid.UUID, value *bool) (*models.FeatureFlagAssignment, error) {
	var flag models.FeatureFlag
	if err := r.db.WithContext(ctx).First(&flag, "id = ?", flagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed to assign feature flag", "Feature flag is not found")
		}
		return nil, apperror.From(err)
	}

	if !flag.AllowsOverrideFor(scope) {
		return nil, apperror.BadRequest("Failed to assign feature flag", "Feature flag cannot be assigned to "+scope)
	}

	var existing models.FeatureFlagAssignment
	err := r.db.WithContext(ctx).
		Where("feature_flag_id = ? AND "+subjectColumn+" = ?", flagID, subjectID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		assignment := models.FeatureFlagAssignment{
			FeatureFlagID: flagID,
			Value:         value,
		}
		if scope == models.OverrideUser {
			assignment.UserID = &subjectID
		} else {
			assignment.OrganizationID = &subjectID
		}

		if err := r.db.WithContext(ctx).Create(&assignment).Error; err != nil {
			return nil, apperror.From(err)
		}
		return &assignment, nil
	}
	if err != nil {
		return nil, apperror.From(err)
	}

	if err := r.db.WithContext(ctx).Model(&existing).Update("value", value).Error; err != nil {
		return nil, apperror.From(err)
	}
	existing.Value = value
	return &existing, nil
}
