package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	catalogapp "github.com/replytics/dashboard-api/internal/catalog_service/app"
	catalogdomain "github.com/replytics/dashboard-api/internal/catalog_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

type CreateServiceRequestDTO struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Description     string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" validate:"required"`
	PriceCents      int64  `json:"price_cents" validate:"gte=0"`
	Category        string `json:"category,omitempty" validate:"omitempty,max=100"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

type UpdateServiceRequestDTO struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Category        *string `json:"category,omitempty" validate:"omitempty,max=100"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

type ReorderServicesRequestDTO struct {
	ServiceIDs []string `json:"service_ids" validate:"required,min=1,dive,required"`
}

type ApplyTemplateRequestDTO struct {
	Template string `json:"template" validate:"required"`
}

// CatalogHandler serves the service catalog endpoints.
type CatalogHandler struct {
	catalog  *catalogapp.Application
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

func NewCatalogHandler(catalog *catalogapp.Application, audit AuditRecorder, logger *slog.Logger, validate *validator.Validate) *CatalogHandler {
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &CatalogHandler{
		catalog:  catalog,
		audit:    audit,
		logger:   logger.With("handler", "catalog"),
		validate: validate,
	}
}

// RegisterRoutes mounts the service catalog endpoints.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.handleListServices)
	r.Post("/services", h.handleCreateService)
	r.Get("/services/templates", h.handleListTemplates)
	r.Post("/services/apply-template", h.handleApplyTemplate)
	r.Put("/services/reorder", h.handleReorderServices)
	r.Get("/services/{serviceID}", h.handleGetService)
	r.Patch("/services/{serviceID}", h.handleUpdateService)
	r.Delete("/services/{serviceID}", h.handleDeleteService)
}

func (h *CatalogHandler) handleListServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	services, err := h.catalog.ListServices(ctx, authUser.BusinessID, includeInactive)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list services", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (h *CatalogHandler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO CreateServiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	service := &catalogdomain.Service{
		BusinessID:      authUser.BusinessID,
		Name:            reqDTO.Name,
		Description:     reqDTO.Description,
		DurationMinutes: reqDTO.DurationMinutes,
		PriceCents:      reqDTO.PriceCents,
		Category:        reqDTO.Category,
		IsActive:        true,
	}
	if reqDTO.IsActive != nil {
		service.IsActive = *reqDTO.IsActive
	}

	created, err := h.catalog.CreateService(ctx, service)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "create", "service", created.ID, map[string]string{"name": created.Name})
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) handleGetService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	serviceID := chi.URLParam(r, "serviceID")

	service, err := h.catalog.GetService(ctx, serviceID, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, service)
}

func (h *CatalogHandler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	serviceID := chi.URLParam(r, "serviceID")

	var reqDTO UpdateServiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	patch := catalogdomain.ServicePatch{
		Name:            reqDTO.Name,
		Description:     reqDTO.Description,
		DurationMinutes: reqDTO.DurationMinutes,
		PriceCents:      reqDTO.PriceCents,
		Category:        reqDTO.Category,
		IsActive:        reqDTO.IsActive,
	}

	service, err := h.catalog.UpdateService(ctx, serviceID, authUser.BusinessID, patch)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "service", serviceID, nil)
	respondWithJSON(w, http.StatusOK, service)
}

func (h *CatalogHandler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	serviceID := chi.URLParam(r, "serviceID")

	if err := h.catalog.DeleteService(ctx, serviceID, authUser.BusinessID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "delete", "service", serviceID, nil)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CatalogHandler) handleReorderServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO ReorderServicesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.catalog.ReorderServices(ctx, authUser.BusinessID, reqDTO.ServiceIDs); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "service_order", "", nil)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *CatalogHandler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"templates": catalogdomain.TemplateNames()})
}

func (h *CatalogHandler) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO ApplyTemplateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	services, err := h.catalog.ApplyTemplate(ctx, authUser.BusinessID, reqDTO.Template)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "create", "service_template", reqDTO.Template, nil)
	respondWithJSON(w, http.StatusCreated, map[string]any{"services": services})
}
