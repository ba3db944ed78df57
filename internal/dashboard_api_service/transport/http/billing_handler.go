package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	billingapp "github.com/replytics/dashboard-api/internal/billing_service/app"
	billingdomain "github.com/replytics/dashboard-api/internal/billing_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

type ChangePlanRequestDTO struct {
	Plan string `json:"plan" validate:"required"`
}

// BillingHandler serves the subscription and invoice endpoints.
type BillingHandler struct {
	billing  *billingapp.BillingService
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

func NewBillingHandler(billing *billingapp.BillingService, audit AuditRecorder, logger *slog.Logger, validate *validator.Validate) *BillingHandler {
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &BillingHandler{
		billing:  billing,
		audit:    audit,
		logger:   logger.With("handler", "billing"),
		validate: validate,
	}
}

// RegisterRoutes mounts the billing endpoints.
func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/billing", h.handleGetBillingInfo)
	r.Get("/billing/invoices", h.handleListInvoices)
	r.Get("/billing/plans", h.handleListPlans)
	r.Post("/billing/change-plan", h.handleChangePlan)
	r.Post("/billing/cancel", h.handleCancelSubscription)
}

func (h *BillingHandler) handleGetBillingInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	info, err := h.billing.GetBillingInfo(ctx, authUser.BusinessID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load billing info", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

func (h *BillingHandler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	invoices, err := h.billing.ListInvoices(ctx, authUser.BusinessID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list invoices", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *BillingHandler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"plans": billingdomain.Plans})
}

func (h *BillingHandler) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO ChangePlanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	result, err := h.billing.UpgradePlan(ctx, authUser.BusinessID, reqDTO.Plan)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "subscription", reqDTO.Plan, nil)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *BillingHandler) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	subscription, err := h.billing.CancelSubscription(ctx, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "subscription", "cancel_at_period_end", nil)
	respondWithJSON(w, http.StatusOK, subscription)
}
