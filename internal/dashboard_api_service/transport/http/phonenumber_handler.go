package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
	phonenumberapp "github.com/replytics/dashboard-api/internal/phonenumber_service/app"
	phonenumberdomain "github.com/replytics/dashboard-api/internal/phonenumber_service/domain"
)

type ProvisionNumberRequestDTO struct {
	AreaCode     string   `json:"area_code,omitempty" validate:"omitempty,len=3,numeric"`
	Contains     string   `json:"contains,omitempty" validate:"omitempty,max=10"`
	Capabilities []string `json:"capabilities,omitempty"`
	DisplayName  string   `json:"display_name,omitempty" validate:"omitempty,max=200"`
	Timezone     string   `json:"timezone,omitempty"`
}

type AssignStaffRequestDTO struct {
	StaffIDs []string `json:"staff_ids" validate:"required,dive,required"`
}

// PhoneNumberHandler serves the phone number lifecycle endpoints.
type PhoneNumberHandler struct {
	numbers  *phonenumberapp.Application
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

func NewPhoneNumberHandler(numbers *phonenumberapp.Application, audit AuditRecorder, logger *slog.Logger, validate *validator.Validate) *PhoneNumberHandler {
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &PhoneNumberHandler{
		numbers:  numbers,
		audit:    audit,
		logger:   logger.With("handler", "phonenumber"),
		validate: validate,
	}
}

// RegisterRoutes mounts the phone number endpoints.
func (h *PhoneNumberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/phone-numbers", h.handleListNumbers)
	r.Post("/phone-numbers", h.handleProvisionNumber)
	r.Get("/phone-numbers/{numberID}", h.handleGetNumber)
	r.Patch("/phone-numbers/{numberID}", h.handleUpdateSettings)
	r.Post("/phone-numbers/{numberID}/activate", h.handleActivate)
	r.Post("/phone-numbers/{numberID}/suspend", h.handleSuspend)
	r.Delete("/phone-numbers/{numberID}", h.handleRelease)
	r.Post("/phone-numbers/{numberID}/set-primary", h.handleSetPrimary)
	r.Put("/phone-numbers/{numberID}/staff", h.handleAssignStaff)
}

func (h *PhoneNumberHandler) handleListNumbers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	numbers, err := h.numbers.ListNumbers(ctx, authUser.BusinessID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list phone numbers", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"phone_numbers": numbers})
}

func (h *PhoneNumberHandler) handleGetNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	number, err := h.numbers.GetNumber(ctx, authUser.BusinessID, chi.URLParam(r, "numberID"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, number)
}

func (h *PhoneNumberHandler) handleProvisionNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO ProvisionNumberRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	number, err := h.numbers.ProvisionNumber(ctx, authUser.BusinessID, phonenumberdomain.ProvisionRequest{
		AreaCode:     reqDTO.AreaCode,
		Contains:     reqDTO.Contains,
		Capabilities: reqDTO.Capabilities,
		DisplayName:  reqDTO.DisplayName,
		Timezone:     reqDTO.Timezone,
	})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "create", "phone_number", number.ID, map[string]string{"phone_number": number.PhoneNumber})
	respondWithJSON(w, http.StatusCreated, number)
}

func (h *PhoneNumberHandler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	numberID := chi.URLParam(r, "numberID")

	var patch phonenumberdomain.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	number, err := h.numbers.UpdateSettings(ctx, authUser.BusinessID, numberID, patch)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "phone_number", numberID, nil)
	respondWithJSON(w, http.StatusOK, number)
}

func (h *PhoneNumberHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "activate", h.numbers.ActivateNumber)
}

func (h *PhoneNumberHandler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "suspend", h.numbers.SuspendNumber)
}

func (h *PhoneNumberHandler) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "set_primary", h.numbers.SetPrimaryNumber)
}

func (h *PhoneNumberHandler) transition(w http.ResponseWriter, r *http.Request, action string, op func(ctx context.Context, businessID, id string) (*phonenumberdomain.PhoneNumber, error)) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	numberID := chi.URLParam(r, "numberID")

	number, err := op(ctx, authUser.BusinessID, numberID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "phone_number", numberID, map[string]string{"action": action})
	respondWithJSON(w, http.StatusOK, number)
}

func (h *PhoneNumberHandler) handleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	numberID := chi.URLParam(r, "numberID")

	if err := h.numbers.ReleaseNumber(ctx, authUser.BusinessID, numberID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "delete", "phone_number", numberID, nil)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func (h *PhoneNumberHandler) handleAssignStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	numberID := chi.URLParam(r, "numberID")

	var reqDTO AssignStaffRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.numbers.AssignStaff(ctx, authUser.BusinessID, numberID, reqDTO.StaffIDs); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "phone_number_staff", numberID, nil)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}
