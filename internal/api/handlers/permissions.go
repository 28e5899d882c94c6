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

type PermissionHandler struct {
	db *gorm.DB
}

func NewPermissionHandler(db *gorm.DB) *PermissionHandler {
	return &PermissionHandler{db: db}
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	var totalCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.Permission{}).Count(&totalCount).Error; err != nil {
		writeError(w, err)
		return
	}

	var permissions []models.Permission
	err := h.db.WithContext(r.Context()).
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&permissions).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.NewPaginated(permissions, totalCount, page.Size))
}

func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	permission, err := h.permissionByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, permission)
}

func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var existing models.Permission
	err := h.db.WithContext(r.Context()).Where("key = ?", req.Key).First(&existing).Error
	if err == nil {
		writeError(w, apperror.Conflict("Failed create permission", "Permission with "+req.Key+" key is already exist"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, err)
		return
	}

	permission := models.Permission{
		Name:        req.Name,
		Key:         req.Key,
		Description: req.Description,
	}
	if err := h.db.WithContext(r.Context()).Create(&permission).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, permission)
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePermissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	permission, err := h.permissionByID(r, uuidParam(r, "id"))
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

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(permission).Updates(updates).Error; err != nil {
			writeError(w, err)
			return
		}
	}

	writeData(w, http.StatusOK, permission)
}

func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if err := h.db.WithContext(r.Context()).Delete(&models.Permission{}, "id = ?", id).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *PermissionHandler) permissionByID(r *http.Request, id uuid.UUID) (*models.Permission, error) {
	var permission models.Permission
	if err := h.db.WithContext(r.Context()).First(&permission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed to get permission", "Permission you're looking for is not found")
		}
		return nil, apperror.From(err)
	}
	return &permission, nil
}
