package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/metrics"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/notifier"
	"github.com/pulcova-api/internal/repository"
	"github.com/pulcova-api/internal/validation"
	"github.com/rs/zerolog"
)

// AsyncNotifier accepts best-effort messages for background delivery
type AsyncNotifier interface {
	Dispatch(msg notifier.Message) bool
}

// Notifiers routes engagement notifications
type Notifiers struct {
	// Owner is called synchronously; its failure is logged and never fails the request
	Owner notifier.Notifier
	// Visitor confirmations are fire-and-forget
	Visitor AsyncNotifier
}

// ClientMeta identifies the submitter of a form
type ClientMeta struct {
	IP        string
	UserAgent string
}

// engagementService is the concrete implementation of EngagementService
type engagementService struct {
	leads      repository.LeadRepository
	newsletter repository.NewsletterRepository
	contacts   repository.ContactRepository
	notifiers  Notifiers
	cfg        config.NotifierConfig
	log        zerolog.Logger
}

// NewEngagementService creates an EngagementService
func NewEngagementService(repos *repository.Repositories, notifiers Notifiers, cfg config.NotifierConfig, log zerolog.Logger) EngagementService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &engagementService{
		leads:      repos.Lead,
		newsletter: repos.Newsletter,
		contacts:   repos.Contact,
		notifiers:  notifiers,
		cfg:        cfg,
		log:        log.With().Str("service", "engagement").Logger(),
	}
}

// CaptureLead records a chatbot lead and its conversation so far
func (s *engagementService) CaptureLead(ctx context.Context, req *models.LeadRequest) (*models.ChatLead, error) {
	lead := &models.ChatLead{
		Email:           validation.NormalizeEmail(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		PageURL:         strings.TrimSpace(req.PageURL),
		LastInteraction: time.Now(),
	}

	created, err := s.leads.UpsertByEmail(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("upsert lead: %w", err)
	}

	conv := &models.ChatConversation{LeadID: lead.ID, Messages: req.ConversationHistory}
	if err := s.leads.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	metrics.RecordFormSubmission("lead", "accepted")
	s.log.Info().
		Str("lead_id", lead.ID).
		Bool("new_lead", created).
		Int("messages", len(req.ConversationHistory)).
		Msg("Chatbot lead captured")

	if !created {
		return lead, nil
	}

	s.notifyOwner(ctx, notifier.Message{
		Kind:    notifier.KindLeadAlert,
		To:      []string{s.cfg.OwnerEmail},
		ReplyTo: lead.Email,
		Subject: "New chatbot lead: " + lead.Email,
		Body:    leadAlertBody(lead, req.ConversationHistory),
		Fields: map[string]string{
			"email":    lead.Email,
			"phone":    lead.Phone,
			"page_url": lead.PageURL,
		},
	})
	s.dispatchVisitor(notifier.Message{
		Kind:    notifier.KindLeadWelcome,
		To:      []string{lead.Email},
		ReplyTo: s.cfg.OwnerEmail,
		Subject: "Thanks for reaching out to Pulcova",
		Body: fmt.Sprintf("Hi,\n\nThanks for chatting with us. We'll get back to you shortly.\n\nIn the meantime, have a look at our work at %s/portfolio.\n",
			s.cfg.SiteURL),
	})

	return lead, nil
}

func leadAlertBody(lead *models.ChatLead, history []models.ChatMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	}
	if lead.PageURL != "" {
		fmt.Fprintf(&b, "Page: %s\n", lead.PageURL)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}

// SaveConversation replaces the transcript of the lead's latest conversation
func (s *engagementService) SaveConversation(ctx context.Context, req *models.ConversationRequest) error {
	email := validation.NormalizeEmail(req.Email)
	lead, err := s.leads.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get lead: %w", err)
	}
	if lead == nil {
		return ErrLeadNotFound
	}

	updated, err := s.leads.UpdateLatestConversation(ctx, lead.ID, req.Messages)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if !updated {
		conv := &models.ChatConversation{LeadID: lead.ID, Messages: req.Messages}
		if err := s.leads.CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
	}

	s.log.Debug().Str("lead_id", lead.ID).Int("messages", len(req.Messages)).Msg("Conversation saved")
	return nil
}

// Subscribe adds an email to the newsletter, reactivating a previous subscription
func (s *engagementService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return false, err
	}

	sub, err := s.newsletter.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("get subscription: %w", err)
	}

	reactivated := false
	switch {
	case sub != nil && sub.IsActive:
		metrics.RecordFormSubmission("newsletter", "duplicate")
		return false, ErrAlreadySubscribed
	case sub != nil:
		if err := s.newsletter.SetActive(ctx, email, true, time.Now()); err != nil {
			return false, fmt.Errorf("reactivate subscription: %w", err)
		}
		reactivated = true
	default:
		if err := s.newsletter.Create(ctx, &models.NewsletterSubscription{Email: email}); err != nil {
			return false, fmt.Errorf("create subscription: %w", err)
		}
	}

	metrics.RecordFormSubmission("newsletter", "accepted")
	s.log.Info().Bool("reactivated", reactivated).Msg("Newsletter subscription")

	s.dispatchVisitor(notifier.Message{
		Kind:    notifier.KindNewsletterWelcome,
		To:      []string{email},
		Subject: "Welcome to the Pulcova newsletter",
		Body: fmt.Sprintf("You're subscribed. New articles and case studies will land in your inbox.\n\nUnsubscribe any time at %s/newsletter/unsubscribe.\n",
			s.cfg.SiteURL),
	})
	return reactivated, nil
}

// Unsubscribe deactivates an active subscription
func (s *engagementService) Unsubscribe(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	sub, err := s.newsletter.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil || !sub.IsActive {
		return ErrNotSubscribed
	}
	if err := s.newsletter.SetActive(ctx, email, false, time.Now()); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	s.log.Info().Msg("Newsletter unsubscription")
	return nil
}

// SubmitContact validates and stores a contact form submission. Submissions
// caught by the honeypot are stored as spam and trigger no notifications.
func (s *engagementService) SubmitContact(ctx context.Context, req *models.ContactRequest, meta ClientMeta) (*models.ContactMessage, error) {
	in, err := validation.ValidateContact(req)
	if err != nil {
		metrics.RecordFormSubmission("contact", "invalid")
		return nil, err
	}

	msg := &models.ContactMessage{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Company:     in.Company,
		ProjectType: in.ProjectType,
		Budget:      in.Budget,
		Message:     in.Message,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
		IsSpam:      in.IsSpam,
	}
	if err := s.contacts.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	if msg.IsSpam {
		metrics.RecordFormSubmission("contact", "spam")
		s.log.Warn().Str("contact_id", msg.ID).Str("ip", meta.IP).Msg("Honeypot triggered, contact message flagged as spam")
		return msg, nil
	}

	metrics.RecordFormSubmission("contact", "accepted")
	s.log.Info().Str("contact_id", msg.ID).Msg("Contact message received")

	fullName := msg.FirstName + " " + msg.LastName
	s.notifyOwner(ctx, notifier.Message{
		Kind:    notifier.KindContactAlert,
		To:      []string{s.cfg.OwnerEmail},
		ReplyTo: msg.Email,
		Subject: "New contact message from " + fullName,
		Body:    msg.Message,
		Fields: map[string]string{
			"name":         fullName,
			"email":        msg.Email,
			"company":      msg.Company,
			"project_type": msg.ProjectType,
			"budget":       msg.Budget,
		},
	})
	s.dispatchVisitor(notifier.Message{
		Kind:    notifier.KindContactAck,
		To:      []string{msg.Email},
		ReplyTo: s.cfg.OwnerEmail,
		Subject: "We received your message",
		Body: fmt.Sprintf("Hi %s,\n\nThanks for getting in touch. We usually reply within two business days.\n",
			msg.FirstName),
	})

	return msg, nil
}

// notifyOwner sends the primary notification within the notifier timeout
func (s *engagementService) notifyOwner(ctx context.Context, msg notifier.Message) {
	if s.notifiers.Owner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.notifiers.Owner.Notify(ctx, msg); err != nil {
		s.log.Error().
			Err(err).
			Str("kind", msg.Kind).
			Str("notifier", s.notifiers.Owner.Name()).
			Msg("Failed to notify owner")
	}
}

// dispatchVisitor queues a confirmation for the visitor
func (s *engagementService) dispatchVisitor(msg notifier.Message) {
	if s.notifiers.Visitor == nil {
		return
	}
	if !s.notifiers.Visitor.Dispatch(msg) {
		s.log.Debug().Str("kind", msg.Kind).Msg("Visitor confirmation dropped")
	}
}
