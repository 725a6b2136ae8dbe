package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/mocks"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/notifier"
	"github.com/pulcova-api/internal/service"
	"github.com/pulcova-api/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engagementFixture struct {
	svc        service.EngagementService
	leads      *mocks.MockLeadRepository
	newsletter *mocks.MockNewsletterRepository
	contacts   *mocks.MockContactRepository
	owner      *mocks.MockNotifier
	visitor    *mocks.MockDispatcher
	logs       *bytes.Buffer
}

func newEngagementFixture() *engagementFixture {
	repos, _, _ := mocks.NewMockRepositories()
	f := &engagementFixture{
		leads:      repos.Lead.(*mocks.MockLeadRepository),
		newsletter: repos.Newsletter.(*mocks.MockNewsletterRepository),
		contacts:   repos.Contact.(*mocks.MockContactRepository),
		owner:      &mocks.MockNotifier{},
		visitor:    &mocks.MockDispatcher{},
		logs:       &bytes.Buffer{},
	}
	cfg := config.NotifierConfig{
		OwnerEmail: "owner@pulcova.com",
		SiteURL:    "https://pulcova.com",
		Timeout:    time.Second,
	}
	f.svc = service.NewEngagementService(repos, service.Notifiers{Owner: f.owner, Visitor: f.visitor}, cfg, zerolog.New(f.logs))
	return f
}

func validContact() *models.ContactRequest {
	return &models.ContactRequest{
		FirstName:   "ada",
		LastName:    "lovelace",
		Email:       "Ada@Example.com",
		Company:     "Analytical Engines",
		ProjectType: "web",
		Budget:      "10k-25k",
		Message:     "We would like a new marketing site for our engine.",
	}
}

func TestCaptureLead_NewLead(t *testing.T) {
	f := newEngagementFixture()
	req := &models.LeadRequest{
		Email:   " Visitor@Example.com ",
		Phone:   "+44 20 7946 0000",
		PageURL: "https://pulcova.com/services",
		ConversationHistory: []models.ChatMessage{
			{Role: "user", Content: "Do you build APIs?"},
			{Role: "assistant", Content: "Yes, mostly in Go."},
		},
	}

	lead, err := f.svc.CaptureLead(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "visitor@example.com", lead.Email)
	require.Len(t, f.leads.Conversations[lead.ID], 1)
	assert.Len(t, f.leads.Conversations[lead.ID][0].Messages, 2)

	assert.Equal(t, []string{notifier.KindLeadAlert}, f.owner.Kinds())
	alert := f.owner.Sent[0]
	assert.Equal(t, []string{"owner@pulcova.com"}, alert.To)
	assert.Equal(t, "visitor@example.com", alert.ReplyTo)
	assert.Contains(t, alert.Body, "user: Do you build APIs?")
	assert.Contains(t, alert.Body, "Phone: +44 20 7946 0000")

	assert.Equal(t, []string{notifier.KindLeadWelcome}, f.visitor.Kinds())
	assert.Contains(t, f.visitor.Dispatched[0].Body, "https://pulcova.com/portfolio")
}

func TestCaptureLead_ReturningLeadIsNotNotified(t *testing.T) {
	f := newEngagementFixture()
	req := &models.LeadRequest{Email: "visitor@example.com"}

	first, err := f.svc.CaptureLead(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.CaptureLead(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.leads.Conversations[first.ID], 2, "every capture opens a conversation")
	assert.Len(t, f.owner.Sent, 1)
	assert.Len(t, f.visitor.Dispatched, 1)
}

func TestCaptureLead_OwnerFailureDoesNotFailRequest(t *testing.T) {
	f := newEngagementFixture()
	f.owner.Err = errors.New("webhook unreachable")
	f.visitor.Reject = true

	lead, err := f.svc.CaptureLead(context.Background(), &models.LeadRequest{Email: "visitor@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Contains(t, f.logs.String(), "Failed to notify owner")
	assert.Contains(t, f.logs.String(), "Visitor confirmation dropped")
}

func TestCaptureLead_StorageFailure(t *testing.T) {
	f := newEngagementFixture()
	f.leads.UpsertErr = errors.New("connection refused")

	_, err := f.svc.CaptureLead(context.Background(), &models.LeadRequest{Email: "visitor@example.com"})
	require.Error(t, err)
	assert.Empty(t, f.owner.Sent)
	assert.Empty(t, f.visitor.Dispatched)
}

func TestCaptureLead_WithoutNotifiers(t *testing.T) {
	repos, _, _ := mocks.NewMockRepositories()
	svc := service.NewEngagementService(repos, service.Notifiers{}, config.NotifierConfig{}, zerolog.Nop())

	_, err := svc.CaptureLead(context.Background(), &models.LeadRequest{Email: "visitor@example.com"})
	assert.NoError(t, err)
}

func TestSaveConversation(t *testing.T) {
	f := newEngagementFixture()
	lead, err := f.svc.CaptureLead(context.Background(), &models.LeadRequest{Email: "visitor@example.com"})
	require.NoError(t, err)

	messages := []models.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "pricing?"},
	}
	err = f.svc.SaveConversation(context.Background(), &models.ConversationRequest{Email: "VISITOR@example.com", Messages: messages})
	require.NoError(t, err)

	convs := f.leads.Conversations[lead.ID]
	require.Len(t, convs, 1)
	assert.Len(t, convs[0].Messages, 3)
}

func TestSaveConversation_CreatesWhenMissing(t *testing.T) {
	f := newEngagementFixture()
	f.leads.Leads["visitor@example.com"] = &models.ChatLead{ID: "lead-1", Email: "visitor@example.com"}

	err := f.svc.SaveConversation(context.Background(), &models.ConversationRequest{
		Email:    "visitor@example.com",
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Len(t, f.leads.Conversations["lead-1"], 1)
}

func TestSaveConversation_UnknownLead(t *testing.T) {
	f := newEngagementFixture()

	err := f.svc.SaveConversation(context.Background(), &models.ConversationRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, service.ErrLeadNotFound)
}

func TestSubscribe(t *testing.T) {
	f := newEngagementFixture()

	reactivated, err := f.svc.Subscribe(context.Background(), " Reader@Example.com")
	require.NoError(t, err)
	assert.False(t, reactivated)

	sub := f.newsletter.Subscriptions["reader@example.com"]
	require.NotNil(t, sub)
	assert.True(t, sub.IsActive)
	assert.Equal(t, []string{notifier.KindNewsletterWelcome}, f.visitor.Kinds())
	assert.Empty(t, f.owner.Sent)
}

func TestSubscribe_AlreadyActive(t *testing.T) {
	f := newEngagementFixture()
	_, err := f.svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)

	_, err = f.svc.Subscribe(context.Background(), "reader@example.com")
	assert.ErrorIs(t, err, service.ErrAlreadySubscribed)
	assert.Len(t, f.visitor.Dispatched, 1)
}

func TestSubscribe_Reactivates(t *testing.T) {
	f := newEngagementFixture()
	_, err := f.svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Unsubscribe(context.Background(), "reader@example.com"))

	sub := f.newsletter.Subscriptions["reader@example.com"]
	require.NotNil(t, sub.UnsubscribedAt)

	reactivated, err := f.svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.True(t, reactivated)
	assert.True(t, sub.IsActive)
	assert.Nil(t, sub.UnsubscribedAt)
	assert.Len(t, f.newsletter.Subscriptions, 1)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	f := newEngagementFixture()

	_, err := f.svc.Subscribe(context.Background(), "not-an-email")
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "email", verrs.Fields[0].Field)
	assert.Empty(t, f.newsletter.Subscriptions)
}

func TestUnsubscribe_NotSubscribed(t *testing.T) {
	f := newEngagementFixture()

	err := f.svc.Unsubscribe(context.Background(), "reader@example.com")
	assert.ErrorIs(t, err, service.ErrNotSubscribed)

	_, err = f.svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Unsubscribe(context.Background(), "reader@example.com"))

	err = f.svc.Unsubscribe(context.Background(), "reader@example.com")
	assert.ErrorIs(t, err, service.ErrNotSubscribed)
}

func TestSubmitContact(t *testing.T) {
	f := newEngagementFixture()
	meta := service.ClientMeta{IP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

	msg, err := f.svc.SubmitContact(context.Background(), validContact(), meta)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Ada", msg.FirstName)
	assert.Equal(t, "Lovelace", msg.LastName)
	assert.Equal(t, "ada@example.com", msg.Email)
	assert.Equal(t, "203.0.113.7", msg.IPAddress)
	assert.Equal(t, "Mozilla/5.0", msg.UserAgent)
	assert.False(t, msg.IsSpam)
	require.Len(t, f.contacts.Messages, 1)

	require.Equal(t, []string{notifier.KindContactAlert}, f.owner.Kinds())
	alert := f.owner.Sent[0]
	assert.Equal(t, "New contact message from Ada Lovelace", alert.Subject)
	assert.Equal(t, "ada@example.com", alert.ReplyTo)
	assert.Equal(t, "Analytical Engines", alert.Fields["company"])

	require.Equal(t, []string{notifier.KindContactAck}, f.visitor.Kinds())
	assert.Equal(t, []string{"ada@example.com"}, f.visitor.Dispatched[0].To)
	assert.Contains(t, f.visitor.Dispatched[0].Body, "Hi Ada,")
}

func TestSubmitContact_Invalid(t *testing.T) {
	f := newEngagementFixture()
	req := validContact()
	req.Email = "bad"
	req.Message = "short"

	_, err := f.svc.SubmitContact(context.Background(), req, service.ClientMeta{})
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Fields, 2)
	assert.Empty(t, f.contacts.Messages)
	assert.Empty(t, f.owner.Sent)
}

func TestSubmitContact_HoneypotIsStoredAsSpam(t *testing.T) {
	f := newEngagementFixture()
	req := validContact()
	req.Website = "http://spam.example"

	msg, err := f.svc.SubmitContact(context.Background(), req, service.ClientMeta{IP: "198.51.100.1"})
	require.NoError(t, err)

	assert.True(t, msg.IsSpam)
	require.Len(t, f.contacts.Messages, 1)
	assert.True(t, f.contacts.Messages[0].IsSpam)
	assert.Empty(t, f.owner.Sent)
	assert.Empty(t, f.visitor.Dispatched)
	assert.Contains(t, f.logs.String(), "Honeypot triggered")
}

func TestSubmitContact_StorageFailure(t *testing.T) {
	f := newEngagementFixture()
	f.contacts.CreateErr = errors.New("disk full")

	_, err := f.svc.SubmitContact(context.Background(), validContact(), service.ClientMeta{})
	require.Error(t, err)
	assert.Empty(t, f.owner.Sent)
}

func TestSubmitContact_OwnerTimeoutIsBounded(t *testing.T) {
	repos, _, _ := mocks.NewMockRepositories()
	slow := &deadlineNotifier{}
	svc := service.NewEngagementService(repos, service.Notifiers{Owner: slow},
		config.NotifierConfig{OwnerEmail: "owner@pulcova.com", Timeout: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	_, err := svc.SubmitContact(context.Background(), validContact(), service.ClientMeta{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, slow.hadDeadline)
}

// deadlineNotifier blocks until its context expires
type deadlineNotifier struct {
	hadDeadline bool
}

func (d *deadlineNotifier) Notify(ctx context.Context, msg notifier.Message) error {
	_, d.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (d *deadlineNotifier) Name() string { return "slow" }
