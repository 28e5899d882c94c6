package dto

import (
	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/validation"
)

type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (r CreateUserRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Email == "" {
		errs["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errs["email"] = "Email is invalid"
	}
	if r.Name == "" {
		errs["name"] = "Name is required"
	}

	return errs
}

type UpdateUserRequest struct {
	Name *string `json:"name"`
}

// UpdateMeRequest additionally lets the caller set or clear their avatar.
type UpdateMeRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type AssignRoleRequest struct {
	RoleID         uuid.UUID `json:"roleId"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (r AssignRoleRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.RoleID == uuid.Nil {
		errs["roleId"] = "Role id is required"
	}
	if r.OrganizationID == uuid.Nil {
		errs["organizationId"] = "Organization id is required"
	}

	return errs
}

type AssignOrganizationRequest struct {
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (r AssignOrganizationRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.OrganizationID == uuid.Nil {
		errs["organizationId"] = "Organization id is required"
	}

	return errs
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

func (r CreateOrganizationRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Name == "" {
		errs["name"] = "Name is required"
	}

	return errs
}

type UpdateOrganizationRequest struct {
	Name *string `json:"name"`
}

type CreateRoleRequest struct {
	Name             string  `json:"name"`
	Key              string  `json:"key"`
	Description      *string `json:"description"`
	AssignedOnSignUp bool    `json:"assignedOnSignUp"`
}

func (r CreateRoleRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	if r.Key == "" {
		errs["key"] = "Key is required"
	}

	return errs
}

type UpdateRoleRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	AssignedOnSignUp *bool   `json:"assignedOnSignUp"`
}

type AssignPermissionRequest struct {
	PermissionID uuid.UUID `json:"permissionId"`
}

func (r AssignPermissionRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.PermissionID == uuid.Nil {
		errs["permissionId"] = "Permission id is required"
	}

	return errs
}

type CreatePermissionRequest struct {
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Description *string `json:"description"`
}

func (r CreatePermissionRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	if r.Key == "" {
		errs["key"] = "Key is required"
	}

	return errs
}

type UpdatePermissionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateFeatureFlagRequest struct {
	Name          string  `json:"name"`
	Key           string  `json:"key"`
	Description   *string `json:"description"`
	AllowOverride *string `json:"allowOverride"`
	DefaultValue  bool    `json:"defaultValue"`
}

func (r CreateFeatureFlagRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	if r.Key == "" {
		errs["key"] = "Key is required"
	}
	if r.AllowOverride != nil && *r.AllowOverride != "user" && *r.AllowOverride != "organization" {
		errs["allowOverride"] = "Allow override must be user or organization"
	}

	return errs
}

type UpdateFeatureFlagRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DefaultValue *bool   `json:"defaultValue"`
}

// AssignFeatureFlagRequest upserts an override for the subject in the URL.
// A missing value stores the explicit "inherit default" marker.
type AssignFeatureFlagRequest struct {
	FeatureFlagID uuid.UUID `json:"featureFlagId"`
	Value         *bool     `json:"value"`
}

func (r AssignFeatureFlagRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.FeatureFlagID == uuid.Nil {
		errs["featureFlagId"] = "Feature flag id is required"
	}

	return errs
}

type PresignUploadRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
}

func (r PresignUploadRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Key == "" {
		errs["key"] = "Key is required"
	}
	if r.ContentType == "" {
		errs["contentType"] = "Content type is required"
	}

	return errs
}

type PresignedURLResponse struct {
	URL string `json:"url"`
}
