package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	businessapp "github.com/replytics/dashboard-api/internal/business_service/app"
	businessdomain "github.com/replytics/dashboard-api/internal/business_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

type ProfilePatchDTO struct {
	BusinessName *string `json:"business_name,omitempty" validate:"omitempty,min=1,max=200"`
	Industry     *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	PhoneNumber  *string `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Website      *string `json:"website,omitempty" validate:"omitempty,max=500"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode      *string `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Country      *string `json:"country,omitempty" validate:"omitempty,max=100"`
	Timezone     *string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type VoiceSettingsPatchDTO struct {
	VoiceID         *string  `json:"voiceId,omitempty"`
	VoiceSpeed      *float64 `json:"voiceSpeed,omitempty"`
	VoicePitch      *float64 `json:"voicePitch,omitempty"`
	GreetingMessage *string  `json:"greetingMessage,omitempty" validate:"omitempty,max=1000"`
	VoiceGender     *string  `json:"voiceGender,omitempty" validate:"omitempty,oneof=female male neutral"`
	Language        *string  `json:"language,omitempty" validate:"omitempty,max=16"`
	TransferNumber  *string  `json:"transferNumber,omitempty" validate:"omitempty,max=32"`
	EnableTransfer  *bool    `json:"enableTransfer,omitempty"`
	MaxCallDuration *int     `json:"maxCallDuration,omitempty"`
	RecordCalls     *bool    `json:"recordCalls,omitempty"`
	TranscribeCalls *bool    `json:"transcribeCalls,omitempty"`
}

type RulesPatchDTO struct {
	BookingEnabled        *bool             `json:"bookingEnabled,omitempty"`
	CollectCustomerInfo   *bool             `json:"collectCustomerInfo,omitempty"`
	SendConfirmationSMS   *bool             `json:"sendConfirmationSMS,omitempty"`
	BusinessHoursOnly     *bool             `json:"businessHoursOnly,omitempty"`
	AfterHoursMessage     *string           `json:"afterHoursMessage,omitempty" validate:"omitempty,max=1000"`
	BookingInstructions   *string           `json:"bookingInstructions,omitempty" validate:"omitempty,max=1000"`
	FAQResponses          map[string]string `json:"faqResponses,omitempty"`
	CustomResponses       []string          `json:"customResponses,omitempty"`
	AllowMultipleServices *bool             `json:"allowMultipleServices,omitempty"`
	AllowCancellations    *bool             `json:"allowCancellations,omitempty"`
	AllowRescheduling     *bool             `json:"allowRescheduling,omitempty"`
	NoShowBlockEnabled    *bool             `json:"noShowBlockEnabled,omitempty"`
	NoShowThreshold       *int              `json:"noShowThreshold,omitempty"`
}

type UpdateHoursRequestDTO struct {
	Hours []businessdomain.DayHours `json:"hours" validate:"required"`
}

type AddHolidayRequestDTO struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name,omitempty" validate:"omitempty,max=200"`
}

// BusinessHandler serves the business configuration surface: profile, voice
// settings, conversation rules, operating hours and holidays.
type BusinessHandler struct {
	business *businessapp.Application
	audit    AuditRecorder
	logger   *slog.Logger
	validate *validator.Validate
}

func NewBusinessHandler(business *businessapp.Application, audit AuditRecorder, logger *slog.Logger, validate *validator.Validate) *BusinessHandler {
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &BusinessHandler{
		business: business,
		audit:    audit,
		logger:   logger.With("handler", "business"),
		validate: validate,
	}
}

// RegisterRoutes mounts the business configuration endpoints.
func (h *BusinessHandler) RegisterRoutes(r chi.Router) {
	r.Get("/business/profile", h.handleGetProfile)
	r.Patch("/business/profile", h.handleUpdateProfile)
	r.Get("/business/voice-settings", h.handleGetVoiceSettings)
	r.Put("/business/voice-settings", h.handleUpdateVoiceSettings)
	r.Get("/business/conversation-rules", h.handleGetConversationRules)
	r.Put("/business/conversation-rules", h.handleUpdateConversationRules)

	r.Get("/hours", h.handleGetHours)
	r.Put("/hours", h.handleUpdateHours)
	r.Get("/hours/holidays", h.handleListHolidays)
	r.Post("/hours/holidays", h.handleAddHoliday)
	r.Delete("/hours/holidays/{date}", h.handleRemoveHoliday)
}

func (h *BusinessHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	profile, err := h.business.GetProfile(ctx, authUser.BusinessID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to get business profile", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *BusinessHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO ProfilePatchDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	patch := businessdomain.ProfilePatch{
		BusinessName: reqDTO.BusinessName,
		Industry:     reqDTO.Industry,
		PhoneNumber:  reqDTO.PhoneNumber,
		Email:        reqDTO.Email,
		Website:      reqDTO.Website,
		Address:      reqDTO.Address,
		City:         reqDTO.City,
		State:        reqDTO.State,
		ZipCode:      reqDTO.ZipCode,
		Country:      reqDTO.Country,
		Timezone:     reqDTO.Timezone,
		Description:  reqDTO.Description,
	}

	profile, err := h.business.UpdateProfile(ctx, authUser.BusinessID, patch)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "business_profile", authUser.BusinessID, nil)
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *BusinessHandler) handleGetVoiceSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	settings, err := h.business.GetVoiceSettings(ctx, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *BusinessHandler) handleUpdateVoiceSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO VoiceSettingsPatchDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	patch := businessdomain.VoiceSettingsPatch{
		VoiceID:         reqDTO.VoiceID,
		VoiceSpeed:      reqDTO.VoiceSpeed,
		VoicePitch:      reqDTO.VoicePitch,
		GreetingMessage: reqDTO.GreetingMessage,
		VoiceGender:     reqDTO.VoiceGender,
		Language:        reqDTO.Language,
		TransferNumber:  reqDTO.TransferNumber,
		EnableTransfer:  reqDTO.EnableTransfer,
		MaxCallDuration: reqDTO.MaxCallDuration,
		RecordCalls:     reqDTO.RecordCalls,
		TranscribeCalls: reqDTO.TranscribeCalls,
	}

	settings, err := h.business.UpdateVoiceSettings(ctx, authUser.BusinessID, patch)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "voice_settings", authUser.BusinessID, nil)
	respondWithJSON(w, http.StatusOK, settings)
}

func (h *BusinessHandler) handleGetConversationRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	rules, err := h.business.GetConversationRules(ctx, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rules)
}

func (h *BusinessHandler) handleUpdateConversationRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO RulesPatchDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	patch := businessdomain.RulesPatch{
		BookingEnabled:        reqDTO.BookingEnabled,
		CollectCustomerInfo:   reqDTO.CollectCustomerInfo,
		SendConfirmationSMS:   reqDTO.SendConfirmationSMS,
		BusinessHoursOnly:     reqDTO.BusinessHoursOnly,
		AfterHoursMessage:     reqDTO.AfterHoursMessage,
		BookingInstructions:   reqDTO.BookingInstructions,
		FAQResponses:          reqDTO.FAQResponses,
		CustomResponses:       reqDTO.CustomResponses,
		AllowMultipleServices: reqDTO.AllowMultipleServices,
		AllowCancellations:    reqDTO.AllowCancellations,
		AllowRescheduling:     reqDTO.AllowRescheduling,
		NoShowBlockEnabled:    reqDTO.NoShowBlockEnabled,
		NoShowThreshold:       reqDTO.NoShowThreshold,
	}

	rules, err := h.business.UpdateConversationRules(ctx, authUser.BusinessID, patch)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "conversation_rules", authUser.BusinessID, nil)
	respondWithJSON(w, http.StatusOK, rules)
}

func (h *BusinessHandler) handleGetHours(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	week, err := h.business.GetHours(ctx, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"hours": week})
}

func (h *BusinessHandler) handleUpdateHours(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO UpdateHoursRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.business.UpdateHours(ctx, authUser.BusinessID, reqDTO.Hours); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "update", "business_hours", authUser.BusinessID, nil)
	respondWithJSON(w, http.StatusOK, map[string]any{"hours": reqDTO.Hours})
}

func (h *BusinessHandler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	holidays, err := h.business.ListHolidays(ctx, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"holidays": holidays})
}

func (h *BusinessHandler) handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	var reqDTO AddHolidayRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	holiday := &businessdomain.Holiday{
		BusinessID: authUser.BusinessID,
		Date:       reqDTO.Date,
		Name:       reqDTO.Name,
	}
	if err := h.business.AddHoliday(ctx, holiday); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "create", "holiday", reqDTO.Date, nil)
	respondWithJSON(w, http.StatusCreated, holiday)
}

func (h *BusinessHandler) handleRemoveHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	date := chi.URLParam(r, "date")

	if err := h.business.RemoveHoliday(ctx, authUser.BusinessID, date); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.audit.Record(ctx, authUser.BusinessID, authUser.UserID, "delete", "holiday", date, nil)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
