package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/flags"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	db    *gorm.DB
	flags *flags.Resolver
}

func NewOrganizationHandler(db *gorm.DB, flagResolver *flags.Resolver) *OrganizationHandler {
	return &OrganizationHandler{db: db, flags: flagResolver}
}

// organizationRow is an organization with its member count joined in.
type organizationRow struct {
	models.Organization
	UsersCount int64 `json:"users_count"`
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	var totalCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.Organization{}).Count(&totalCount).Error; err != nil {
		writeError(w, err)
		return
	}

	var organizations []models.Organization
	err := h.db.WithContext(r.Context()).
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&organizations).Error
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]organizationRow, 0, len(organizations))
	for _, org := range organizations {
		var usersCount int64
		err := h.db.WithContext(r.Context()).
			Model(&models.UserToOrganization{}).
			Where("organization_id = ?", org.ID).
			Count(&usersCount).Error
		if err != nil {
			writeError(w, err)
			return
		}
		rows = append(rows, organizationRow{Organization: org, UsersCount: usersCount})
	}

	writeData(w, http.StatusOK, dto.NewPaginated(rows, totalCount, page.Size))
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.organizationByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Users(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)
	id := uuidParam(r, "id")

	var totalCount int64
	err := h.db.WithContext(r.Context()).
		Model(&models.UserToOrganization{}).
		Where("organization_id = ?", id).
		Count(&totalCount).Error
	if err != nil {
		writeError(w, err)
		return
	}

	var users []models.User
	err = h.db.WithContext(r.Context()).Model(&models.User{}).
		Joins("JOIN users_to_organizations ON users_to_organizations.user_id = users.id").
		Where("users_to_organizations.organization_id = ?", id).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.NewPaginated(users, totalCount, page.Size))
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	org := models.Organization{Name: req.Name}
	if err := h.db.WithContext(r.Context()).Create(&org).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	org, err := h.organizationByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Name != nil {
		if err := h.db.WithContext(r.Context()).Model(org).Update("name", *req.Name).Error; err != nil {
			writeError(w, err)
			return
		}
	}

	writeData(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if err := h.db.WithContext(r.Context()).Delete(&models.Organization{}, "id = ?", id).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// FeatureFlags lists organization-overridable flags with this
// organization's assignment value joined in.
func (h *OrganizationHandler) FeatureFlags(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	values, err := h.flags.AssignmentsForOrganization(r.Context(), uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, paginateFlagValues(values, page))
}

func (h *OrganizationHandler) AssignFeatureFlag(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignFeatureFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	assignment, err := h.flags.AssignToOrganization(r.Context(), req.FeatureFlagID, uuidParam(r, "id"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, assignment)
}

func (h *OrganizationHandler) organizationByID(r *http.Request, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := h.db.WithContext(r.Context()).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed to get organization", "Organization you're looking for is not found")
		}
		return nil, apperror.From(err)
	}
	return &org, nil
}
