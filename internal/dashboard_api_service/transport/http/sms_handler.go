package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
	smsapp "github.com/replytics/dashboard-api/internal/sms_service/app"
	smsdomain "github.com/replytics/dashboard-api/internal/sms_service/domain"
)

type SendMessageRequestDTO struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Body           string `json:"body" validate:"required,min=1,max=1600"`
}

// SMSHandler serves the SMS conversation endpoints.
type SMSHandler struct {
	sms      *smsapp.Application
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSMSHandler(sms *smsapp.Application, logger *slog.Logger, validate *validator.Validate) *SMSHandler {
	return &SMSHandler{
		sms:      sms,
		logger:   logger.With("handler", "sms"),
		validate: validate,
	}
}

// RegisterRoutes mounts the SMS endpoints.
func (h *SMSHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sms/conversations", h.handleListConversations)
	r.Get("/sms/messages", h.handleListMessages)
	r.Post("/sms/messages", h.handleSendMessage)
}

func (h *SMSHandler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	limit, offset := 0, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		offset = n
	}

	page, err := h.sms.ListConversations(ctx, authUser.BusinessID, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list conversations", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *SMSHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	q := r.URL.Query()
	filter := smsdomain.MessageFilter{ConversationID: q.Get("conversation_id")}

	start, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid start_date parameter")
		return
	}
	filter.Start = start
	end, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid end_date parameter")
		return
	}
	filter.End = end

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		filter.Offset = n
	}

	page, err := h.sms.ListMessages(ctx, authUser.BusinessID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list messages", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *SMSHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO SendMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	message, err := h.sms.SendMessage(ctx, authUser.BusinessID, reqDTO.ConversationID, reqDTO.Body)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, message)
}
