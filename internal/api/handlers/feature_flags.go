package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/api/middleware"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/internal/flags"
	"gorm.io/gorm"
)

type FeatureFlagHandler struct {
	db    *gorm.DB
	flags *flags.Resolver
}

func NewFeatureFlagHandler(db *gorm.DB, flagResolver *flags.Resolver) *FeatureFlagHandler {
	return &FeatureFlagHandler{db: db, flags: flagResolver}
}

func (h *FeatureFlagHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.ParsePageQuery(r)

	var totalCount int64
	if err := h.db.WithContext(r.Context()).Model(&models.FeatureFlag{}).Count(&totalCount).Error; err != nil {
		writeError(w, err)
		return
	}

	var flagList []models.FeatureFlag
	err := h.db.WithContext(r.Context()).
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&flagList).Error
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.NewPaginated(flagList, totalCount, page.Size))
}

func (h *FeatureFlagHandler) Get(w http.ResponseWriter, r *http.Request) {
	flag, err := h.flagByID(r, uuidParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, flag)
}

// Overview returns the full flag picture for the calling user: every flag
// plus the user-level and organization-level assignment values visible to
// them.
func (h *FeatureFlagHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.flags.OverviewByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, overview)
}

// Resolve returns the effective value of one flag for the calling user
// after applying the user -> organization -> default precedence.
func (h *FeatureFlagHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, apperror.BadRequest("Failed get feature flag", "Key is required"))
		return
	}

	value, err := h.flags.Resolve(r.Context(), middleware.GetUserID(r.Context()), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

func (h *FeatureFlagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeatureFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var existing models.FeatureFlag
	err := h.db.WithContext(r.Context()).Where("key = ?", req.Key).First(&existing).Error
	if err == nil {
		writeError(w, apperror.Conflict("Failed create feature flag", "Feature flag with "+req.Key+" key is already exist"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, err)
		return
	}

	flag := models.FeatureFlag{
		Name:          req.Name,
		Key:           req.Key,
		Description:   req.Description,
		AllowOverride: req.AllowOverride,
		DefaultValue:  req.DefaultValue,
	}
	if err := h.db.WithContext(r.Context()).Create(&flag).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, flag)
}

func (h *FeatureFlagHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateFeatureFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}

	flag, err := h.flagByID(r, uuidParam(r, "id"))
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
	if req.DefaultValue != nil {
		updates["default_value"] = *req.DefaultValue
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(flag).Updates(updates).Error; err != nil {
			writeError(w, err)
			return
		}
	}

	writeData(w, http.StatusOK, flag)
}

func (h *FeatureFlagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := uuidParam(r, "id")

	if err := h.db.WithContext(r.Context()).Delete(&models.FeatureFlag{}, "id = ?", id).Error; err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

func (h *FeatureFlagHandler) flagByID(r *http.Request, id uuid.UUID) (*models.FeatureFlag, error) {
	var flag models.FeatureFlag
	if err := h.db.WithContext(r.Context()).First(&flag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Failed get feature flag", "Feature flag is not found")
		}
		return nil, apperror.From(err)
	}
	return &flag, nil
}
