package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/api/middleware"
	"github.com/sidrstudio/atlas/internal/api/validation"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/flags"
	"gorm.io/gorm"
)

type UserHandler struct {
	db    *gorm.DB
	flags *flags.Resolver
}

func NewUserHandler(db *gorm.DB, flagResolver *flags.Resolver) *UserHandler {
	return &UserHandler{db: db, flags: flagResolver}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userByID(r, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

// List returns users in one organization (the default one unless
// organizationId is given). An email-shaped search term matches the email
// exactly; anything else matches the name as a substring.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)
	search := r.URL.Query().Get("search")

	orgID, err := h.listOrganizationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var totalCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.User{}).Count(&totalCount).Error; err != nil {
		writeError(w, err)
		return
	}

	query := h.db.WithContext(r.Context()).Model(&models.User{}).
		Joins("JOIN users_to_organizations ON users_to_organizations.user_id = users.id").
		Where("users_to_organizations.organization_id = ?", orgID)

	if search != "" {
		if validation.IsValidEmail(search) {
			query = query.Where("LOWER(users.email) = LOWER(?)", search)
		} else {
			query = query.Where("LOWER(users.name) LIKE LOWER(?)", "%"+search+"%")
		}
	}

	var users []models.User
	err = query.
		Order("users.created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.NewPaginated(users, totalCount, page.Size))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var existing models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		writeError(w, apperror.Conflict("Failed to create user", "User with this email already exist"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, err)
		return
	}

	defaultOrg, err := h.defaultOrganization(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user := models.User{Email: req.Email, Name: req.Name}
	txErr := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserToOrganization{
			UserID:         user.ID,
			OrganizationID: defaultOrg.ID,
		}).Error
	})
	if txErr != nil {
		writeError(w, txErr)
		return
	}

	writeData(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Image != nil {
		updates["image"] = req.Image
	}

	user, err := h.updateUser(r, middleware.GetUserID(r.Context()), updates)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}

	user, err := h.updateUser(r, uuidParam(r, "id"), updates)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

// Suspend marks the account suspended and revokes every live session, so
// the lockout takes effect immediately rather than at next login.
func (h *UserHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if id == middleware.GetUserID(r.Context()) {
		writeError(w, apperror.BadRequest("Failed when trying to suspend user", "You can't suspend yourself"))
		return
	}

	var user *models.User
	txErr := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updated, err := updateUserTx(tx, id, map[string]any{"suspended_at": &now})
		if err != nil {
			return err
		}
		user = updated

		return tx.Delete(&models.Session{}, "user_id = ?", id).Error
	})
	if txErr != nil {
		writeError(w, txErr)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request) {
	user, err := h.updateUser(r, uuidParam(r, "id"), map[string]any{"suspended_at": nil})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if err := h.db.WithContext(r.Context()).Delete(&models.User{}, "id = ?", id).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// orgRoles groups a user's role assignments per organization.
type orgRoles struct {
	OrgID   uuid.UUID     `json:"orgId"`
	OrgName string        `json:"orgName"`
	Roles   []models.Role `json:"roles"`
}

func (h *UserHandler) Roles(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	var assignments []models.RoleToUser
	err := h.db.WithContext(r.Context()).
		Preload("Role").
		Preload("Organization").
		Where("user_id = ?", id).
		Find(&assignments).Error
	if err != nil {
		writeError(w, err)
		return
	}

	grouped := make(map[uuid.UUID]*orgRoles)
	var order []uuid.UUID
	for _, a := range assignments {
		entry, ok := grouped[a.OrganizationID]
		if !ok {
			entry = &orgRoles{OrgID: a.OrganizationID, Roles: []models.Role{}}
			if a.Organization != nil {
				entry.OrgName = a.Organization.Name
			}
			grouped[a.OrganizationID] = entry
			order = append(order, a.OrganizationID)
		}
		if a.Role != nil {
			entry.Roles = append(entry.Roles, *a.Role)
		}
	}

	result := make([]orgRoles, 0, len(order))
	for _, orgID := range order {
		result = append(result, *grouped[orgID])
	}

	writeData(w, http.StatusOK, result)
}

func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	err := h.db.WithContext(r.Context()).Create(&models.RoleToUser{
		RoleID:         req.RoleID,
		UserID:         uuidParam(r, "id"),
		OrganizationID: req.OrganizationID,
	}).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *UserHandler) UnassignRole(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	err := h.db.WithContext(r.Context()).
		Where("role_id = ? AND user_id = ? AND organization_id = ?",
			req.RoleID, uuidParam(r, "id"), req.OrganizationID).
		Delete(&models.RoleToUser{}).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *UserHandler) AssignOrganization(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	err := h.db.WithContext(r.Context()).Create(&models.UserToOrganization{
		UserID:         uuidParam(r, "id"),
		OrganizationID: req.OrganizationID,
	}).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *UserHandler) UnassignOrganization(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	err := h.db.WithContext(r.Context()).
		Where("user_id = ? AND organization_id = ?", uuidParam(r, "id"), req.OrganizationID).
		Delete(&models.UserToOrganization{}).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// FeatureFlags lists user-overridable flags with this user's assignment
// value joined in.
func (h *UserHandler) FeatureFlags(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	values, err := h.flags.AssignmentsForUser(r.Context(), uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, paginateFlagValues(values, page))
}

func (h *UserHandler) AssignFeatureFlag(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignFeatureFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	assignment, err := h.flags.AssignToUser(r.Context(), req.FeatureFlagID, uuidParam(r, "id"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, assignment)
}

func (h *UserHandler) userByID(r *http.Request, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found", "")
		}
		return nil, apperror.From(err)
	}
	return &user, nil
}

func (h *UserHandler) updateUser(r *http.Request, id uuid.UUID, updates map[string]any) (*models.User, error) {
	return updateUserTx(h.db.WithContext(r.Context()), id, updates)
}

func updateUserTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found", "")
		}
		return nil, apperror.From(err)
	}

	if len(updates) > 0 {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperror.From(err)
		}
	}
	return &user, nil
}

func (h *UserHandler) listOrganizationID(r *http.Request) (uuid.UUID, error) {
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, apperror.BadRequest("Failed to list users", "Organization id is invalid")
		}
		return id, nil
	}

	org, err := h.defaultOrganization(r)
	if err != nil {
		return uuid.Nil, err
	}
	return org.ID, nil
}

func (h *UserHandler) defaultOrganization(r *http.Request) (*models.Organization, error) {
	var org models.Organization
	if err := h.db.WithContext(r.Context()).Where("is_default = ?", true).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal("Default organization is not found")
		}
		return nil, apperror.From(err)
	}
	return &org, nil
}

// paginateFlagValues applies page/size to an already-resolved flag list.
func paginateFlagValues(values []flags.FlagValue, page dto.PageQuery) dto.Paginated {
	total := int64(len(values))

	start := page.Offset()
	if start > len(values) {
		start = len(values)
	}
	end := start + page.Size
	if end > len(values) {
		end = len(values)
	}

	return dto.NewPaginated(values[start:end], total, page.Size)
}
