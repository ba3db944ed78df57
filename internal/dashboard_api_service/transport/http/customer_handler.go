package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	customerapp "github.com/replytics/dashboard-api/internal/customer_service/app"
	customerdomain "github.com/replytics/dashboard-api/internal/customer_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

// CustomerHandler serves the customer directory endpoints.
type CustomerHandler struct {
	customers *customerapp.Application
	logger    *slog.Logger
}

func NewCustomerHandler(customers *customerapp.Application, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		logger:    logger.With("handler", "customer"),
	}
}

// RegisterRoutes mounts the customer directory endpoints.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.handleListCustomers)
	r.Get("/customers/segments", h.handleSegmentCounts)
	r.Get("/customers/{customerID}", h.handleGetCustomer)
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	q := r.URL.Query()
	filter := customerdomain.ListFilter{
		Search:    q.Get("search"),
		Segment:   q.Get("segment"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		filter.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid page_size parameter")
			return
		}
		filter.PageSize = size
	}

	page, err := h.customers.ListCustomers(ctx, authUser.BusinessID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list customers", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CustomerHandler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	customerID := chi.URLParam(r, "customerID")

	customer, err := h.customers.GetCustomer(ctx, customerID, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) handleSegmentCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	counts, err := h.customers.SegmentCounts(ctx, authUser.BusinessID, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count customer segments", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}
