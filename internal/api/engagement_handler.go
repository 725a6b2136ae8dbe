package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/service"
	"github.com/pulcova-api/internal/validation"
	"github.com/rs/zerolog"
)

// EngagementHandler handles the chatbot, newsletter and contact forms
type EngagementHandler struct {
	engagement service.EngagementService
	log        zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(engagement service.EngagementService, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		engagement: engagement,
		log:        log.With().Str("handler", "engagement").Logger(),
	}
}

// CaptureLead handles POST /v1/chatbot/lead
func (h *EngagementHandler) CaptureLead(c *gin.Context) {
	var req models.LeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.engagement.CaptureLead(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "capture lead", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "captured",
		"lead_id": lead.ID,
	})
}

// SaveConversation handles POST /v1/chatbot/conversation
func (h *EngagementHandler) SaveConversation(c *gin.Context) {
	var req models.ConversationRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.engagement.SaveConversation(c.Request.Context(), &req); err != nil {
		h.respondError(c, "save conversation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Subscribe handles POST /v1/newsletter/subscribe
func (h *EngagementHandler) Subscribe(c *gin.Context) {
	var req models.SubscriptionRequest
	if !h.bind(c, &req) {
		return
	}

	reactivated, err := h.engagement.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, "subscribe", err)
		return
	}

	status := "subscribed"
	code := http.StatusCreated
	if reactivated {
		status = "reactivated"
		code = http.StatusOK
	}
	c.JSON(code, gin.H{"status": status})
}

// Unsubscribe handles POST /v1/newsletter/unsubscribe
func (h *EngagementHandler) Unsubscribe(c *gin.Context) {
	var req models.SubscriptionRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.engagement.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, "unsubscribe", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

// SubmitContact handles POST /v1/contact
func (h *EngagementHandler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if !h.bind(c, &req) {
		return
	}

	meta := service.ClientMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	msg, err := h.engagement.SubmitContact(c.Request.Context(), &req, meta)
	if err != nil {
		h.respondError(c, "submit contact", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":     "received",
		"message_id": msg.ID,
	})
}

// bind decodes the JSON body, writing a 400 response on failure
func (h *EngagementHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		verrs := validation.FromBindingError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"errors": verrs.Fields,
		})
		return false
	}
	return true
}

func (h *EngagementHandler) respondError(c *gin.Context, op string, err error) {
	var verrs *validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"errors": verrs.Fields,
		})
	case errors.Is(err, service.ErrAlreadySubscribed):
		c.JSON(http.StatusConflict, gin.H{"error": "email is already subscribed"})
	case errors.Is(err, service.ErrNotSubscribed):
		c.JSON(http.StatusNotFound, gin.H{"error": "email is not subscribed"})
	case errors.Is(err, service.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
	default:
		h.log.Error().Err(err).Str("op", op).Msg("Engagement request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
