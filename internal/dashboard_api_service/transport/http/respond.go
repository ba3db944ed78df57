package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	analyticsdomain "github.com/replytics/dashboard-api/internal/analytics_service/domain"
	billingdomain "github.com/replytics/dashboard-api/internal/billing_service/domain"
	businessdomain "github.com/replytics/dashboard-api/internal/business_service/domain"
	calldomain "github.com/replytics/dashboard-api/internal/calllog_service/domain"
	catalogdomain "github.com/replytics/dashboard-api/internal/catalog_service/domain"
	customerdomain "github.com/replytics/dashboard-api/internal/customer_service/domain"
	identityapp "github.com/replytics/dashboard-api/internal/identity_service/app"
	phonedomain "github.com/replytics/dashboard-api/internal/phonenumber_service/domain"
	smsdomain "github.com/replytics/dashboard-api/internal/sms_service/domain"
	"github.com/replytics/dashboard-api/internal/voicebot"
)

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusForError maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, businessdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrServiceNotFound),
		errors.Is(err, customerdomain.ErrCustomerNotFound),
		errors.Is(err, calldomain.ErrCallNotFound),
		errors.Is(err, calldomain.ErrNoRecording),
		errors.Is(err, smsdomain.ErrConversationNotFound),
		errors.Is(err, smsdomain.ErrMessageNotFound),
		errors.Is(err, billingdomain.ErrSubscriptionNotFound),
		errors.Is(err, billingdomain.ErrInvoiceNotFound),
		errors.Is(err, phonedomain.ErrPhoneNumberNotFound):
		return http.StatusNotFound

	case errors.Is(err, businessdomain.ErrAccessDenied),
		errors.Is(err, catalogdomain.ErrAccessDenied):
		return http.StatusForbidden

	case errors.Is(err, businessdomain.ErrDuplicateEntry),
		errors.Is(err, catalogdomain.ErrDuplicateService),
		errors.Is(err, phonedomain.ErrInvalidTransition),
		errors.Is(err, phonedomain.ErrLastActiveNumber),
		errors.Is(err, phonedomain.ErrNotActive):
		return http.StatusConflict

	case errors.Is(err, businessdomain.ErrValidation),
		errors.Is(err, catalogdomain.ErrValidation),
		errors.Is(err, catalogdomain.ErrUnknownTemplate),
		errors.Is(err, customerdomain.ErrValidation),
		errors.Is(err, analyticsdomain.ErrValidation),
		errors.Is(err, calldomain.ErrValidation),
		errors.Is(err, smsdomain.ErrValidation),
		errors.Is(err, billingdomain.ErrUnknownPlan),
		errors.Is(err, phonedomain.ErrValidation),
		errors.Is(err, voicebot.ErrUnknownResource):
		return http.StatusBadRequest

	case errors.Is(err, identityapp.ErrInvalidCredentials),
		errors.Is(err, identityapp.ErrTokenInvalid),
		errors.Is(err, identityapp.ErrUserInactive):
		return http.StatusUnauthorized

	case errors.Is(err, identityapp.ErrEmailExists):
		return http.StatusConflict

	case errors.Is(err, voicebot.ErrUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError writes the mapped status with the error's message for
// client errors and a generic message for server errors.
func respondWithDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= 500 {
		respondWithError(w, status, "Internal server error")
		return
	}
	respondWithError(w, status, err.Error())
}
