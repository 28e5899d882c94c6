package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"gorm.io/gorm"
)

type RoleHandler struct {
	db *gorm.DB
}

func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{db: db}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	var totalCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.Role{}).Count(&totalCount).Error; err != nil {
		writeError(w, err)
		return
	}

	var roles []models.Role
	err := h.db.WithContext(r.Context()).
		Preload("Permissions").
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&roles).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.NewPaginated(roles, totalCount, page.Size))
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.roleByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var existing models.Role
	err := h.db.WithContext(r.Context()).Where("key = ?", req.Key).First(&existing).Error
	if err == nil {
		writeError(w, apperror.Conflict("Failed create role", "Role with "+req.Key+" key is already exist"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, err)
		return
	}

	role := models.Role{
		Name:             req.Name,
		Key:              req.Key,
		Description:      req.Description,
		AssignedOnSignUp: req.AssignedOnSignUp,
	}
	if err := h.db.WithContext(r.Context()).Create(&role).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	role, err := h.roleByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = req.Description
	}
	if req.AssignedOnSignUp != nil {
		updates["assigned_on_sign_up"] = *req.AssignedOnSignUp
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(role).Updates(updates).Error; err != nil {
			writeError(w, err)
			return
		}
	}

	writeData(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if err := h.db.WithContext(r.Context()).Delete(&models.Role{}, "id = ?", id).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *RoleHandler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	role, permission, err := h.rolePermissionPair(w, r)
	if err != nil {
		return
	}

	err = h.db.WithContext(r.Context()).Model(role).Association("Permissions").Append(permission)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *RoleHandler) UnassignPermission(w http.ResponseWriter, r *http.Request) {
	role, permission, err := h.rolePermissionPair(w, r)
	if err != nil {
		return
	}

	err = h.db.WithContext(r.Context()).Model(role).Association("Permissions").Delete(permission)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// rolePermissionPair loads the role from the URL and the permission from
// the body, writing the error response itself on failure.
func (h *RoleHandler) rolePermissionPair(w http.ResponseWriter, r *http.Request) (*models.Role, *models.Permission, error) {
	var req dto.AssignPermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return nil, nil, err
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return nil, nil, errors.New("validation failed")
	}

	role, err := h.roleByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, nil, err
	}

	var permission models.Permission
	if err := h.db.WithContext(r.Context()).First(&permission, "id = ?", req.PermissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apperror.NotFound("Failed to assign permission", "Permission is not found")
		}
		writeError(w, err)
		return nil, nil, err
	}

	return role, &permission, nil
}

func (h *RoleHandler) roleByID(r *http.Request, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := h.db.WithContext(r.Context()).
		Preload("Permissions").
		First(&role, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed to get role", "Role you're looking for is not found")
		}
		return nil, apperror.From(err)
	}
	return &role, nil
}
