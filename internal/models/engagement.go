package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChatLead is a visitor who left an email in the chatbot widget
type ChatLead struct {
	ID              string    `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	Phone           string    `json:"phone,omitempty" db:"phone"`
	PageURL         string    `json:"page_url,omitempty" db:"page_url"`
	IsConverted     bool      `json:"is_converted" db:"is_converted"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	LastInteraction time.Time `json:"last_interaction" db:"last_interaction"`
}

// ChatMessage is one turn of a chatbot conversation
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
	SentAt  string `json:"sent_at,omitempty"`
}

// ChatMessages is stored as a JSONB array
type ChatMessages []ChatMessage

// Value implements driver.Valuer
func (m ChatMessages) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *ChatMessages) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("chat messages: unsupported type %T", src)
	}
}

// ChatConversation is a transcript attached to a lead
type ChatConversation struct {
	ID        string       `json:"id" db:"id"`
	LeadID    string       `json:"lead_id" db:"lead_id"`
	Messages  ChatMessages `json:"messages" db:"messages"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// NewsletterSubscription tracks a newsletter email
type NewsletterSubscription struct {
	ID             string     `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	SubscribedAt   time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
}

// ContactMessage is a submission of the contact form
type ContactMessage struct {
	ID          string    `json:"id" db:"id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	Company     string    `json:"company,omitempty" db:"company"`
	ProjectType string    `json:"project_type,omitempty" db:"project_type"`
	Budget      string    `json:"budget,omitempty" db:"budget"`
	Message     string    `json:"message" db:"message"`
	IPAddress   string    `json:"-" db:"ip_address"`
	UserAgent   string    `json:"-" db:"user_agent"`
	IsSpam      bool      `json:"-" db:"is_spam"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LeadRequest is the chatbot lead capture payload
type LeadRequest struct {
	Email               string        `json:"email" binding:"required,email"`
	Phone               string        `json:"phone" binding:"omitempty,max=20"`
	PageURL             string        `json:"page_url" binding:"omitempty,max=2048"`
	ConversationHistory []ChatMessage `json:"conversation_history" binding:"omitempty,dive"`
}

// ConversationRequest replaces the latest conversation of a lead
type ConversationRequest struct {
	Email    string        `json:"email" binding:"required,email"`
	Messages []ChatMessage `json:"messages" binding:"required,dive"`
}

// SubscriptionRequest is the newsletter payload
type SubscriptionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ContactRequest is the contact form payload
type ContactRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Company     string `json:"company"`
	ProjectType string `json:"project_type"`
	Budget      string `json:"budget"`
	Message     string `json:"message" binding:"required"`
	// Website is a honeypot; humans never fill it
	Website string `json:"website"`
}
