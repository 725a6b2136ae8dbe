package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/models"
)

// leadRepo is the concrete implementation of LeadRepository
type leadRepo struct {
	db *database.DB
}

// NewLeadRepo creates a new chatbot lead repository
func NewLeadRepo(db *database.DB) LeadRepository {
	return &leadRepo{db: db}
}

// UpsertByEmail creates the lead or refreshes its contact details and last interaction.
// xmax is zero only for rows inserted by this statement.
func (r *leadRepo) UpsertByEmail(ctx context.Context, lead *models.ChatLead) (bool, error) {
	if lead.LastInteraction.IsZero() {
		lead.LastInteraction = time.Now()
	}

	var row struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		Inserted  bool      `db:"inserted"`
	}
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO chat_leads (email, phone, page_url, last_interaction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			phone = EXCLUDED.phone,
			page_url = EXCLUDED.page_url,
			last_interaction = EXCLUDED.last_interaction
		RETURNING id, created_at, (xmax = 0) AS inserted`,
		lead.Email, lead.Phone, lead.PageURL, lead.LastInteraction)
	if err != nil {
		return false, err
	}

	lead.ID = row.ID
	lead.CreatedAt = row.CreatedAt
	return row.Inserted, nil
}

// GetByEmail retrieves a lead, nil when absent
func (r *leadRepo) GetByEmail(ctx context.Context, email string) (*models.ChatLead, error) {
	var lead models.ChatLead
	err := r.db.GetContext(ctx, &lead, `
		SELECT id, email, phone, page_url, is_converted, notes, created_at, last_interaction
		FROM chat_leads WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// CreateConversation stores a new transcript for a lead
func (r *leadRepo) CreateConversation(ctx context.Context, conv *models.ChatConversation) error {
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if conv.Messages == nil {
		conv.Messages = models.ChatMessages{}
	}
	return r.db.GetContext(ctx, &conv.ID, `
		INSERT INTO chat_conversations (lead_id, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		conv.LeadID, conv.Messages, conv.CreatedAt, conv.UpdatedAt)
}

// UpdateLatestConversation overwrites the messages of the lead's most recent conversation.
// It reports false when the lead has no conversation yet.
func (r *leadRepo) UpdateLatestConversation(ctx context.Context, leadID string, messages models.ChatMessages) (bool, error) {
	if messages == nil {
		messages = models.ChatMessages{}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE chat_conversations SET messages = $2, updated_at = NOW()
		WHERE id = (
			SELECT id FROM chat_conversations WHERE lead_id = $1
			ORDER BY created_at DESC, id DESC LIMIT 1
		)`, leadID, messages)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of leads
func (r *leadRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM chat_leads")
	return count, err
}

// newsletterRepo is the concrete implementation of NewsletterRepository
type newsletterRepo struct {
	db *database.DB
}

// NewNewsletterRepo creates a new newsletter repository
func NewNewsletterRepo(db *database.DB) NewsletterRepository {
	return &newsletterRepo{db: db}
}

// GetByEmail retrieves a subscription, nil when absent
func (r *newsletterRepo) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	var sub models.NewsletterSubscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT id, email, is_active, subscribed_at, unsubscribed_at
		FROM newsletter_subscriptions WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create inserts a new active subscription
func (r *newsletterRepo) Create(ctx context.Context, sub *models.NewsletterSubscription) error {
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	sub.IsActive = true
	return r.db.GetContext(ctx, &sub.ID, `
		INSERT INTO newsletter_subscriptions (email, is_active, subscribed_at)
		VALUES ($1, TRUE, $2)
		RETURNING id`,
		sub.Email, sub.SubscribedAt)
}

// SetActive reactivates or deactivates a subscription
func (r *newsletterRepo) SetActive(ctx context.Context, email string, active bool, at time.Time) error {
	var err error
	if active {
		_, err = r.db.ExecContext(ctx, `
			UPDATE newsletter_subscriptions
			SET is_active = TRUE, subscribed_at = $2, unsubscribed_at = NULL
			WHERE email = $1`, email, at)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE newsletter_subscriptions
			SET is_active = FALSE, unsubscribed_at = $2
			WHERE email = $1`, email, at)
	}
	return err
}

// CountActive returns the number of active subscriptions
func (r *newsletterRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM newsletter_subscriptions WHERE is_active = TRUE")
	return count, err
}

// contactRepo is the concrete implementation of ContactRepository
type contactRepo struct {
	db *database.DB
}

// NewContactRepo creates a new contact message repository
func NewContactRepo(db *database.DB) ContactRepository {
	return &contactRepo{db: db}
}

// Create stores a contact message
func (r *contactRepo) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.GetContext(ctx, &msg.ID, `
		INSERT INTO contact_messages (first_name, last_name, email, company, project_type, budget,
			message, ip_address, user_agent, is_spam, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		msg.FirstName, msg.LastName, msg.Email, msg.Company, msg.ProjectType, msg.Budget,
		msg.Message, msg.IPAddress, msg.UserAgent, msg.IsSpam, msg.CreatedAt)
}

// Count returns the total number of contact messages
func (r *contactRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM contact_messages")
	return count, err
}
