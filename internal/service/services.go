package service

import (
	"context"
	"errors"
	"io"

	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned for absent, unpublished and future-dated items alike
	ErrNotFound          = errors.New("not found")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrAlreadySubscribed = errors.New("email is already subscribed")
	ErrNotSubscribed     = errors.New("email is not subscribed")
)

// CatalogService defines the public read operations of the content catalog
type CatalogService interface {
	List(ctx context.Context, kind models.Kind, params models.ListParams) (*models.ListPage, error)
	Detail(ctx context.Context, kind models.Kind, slug string) (*models.DetailPage, error)
	VisibleCounts(ctx context.Context) (map[models.Kind]int, error)
}

// EngagementService defines the visitor form operations
type EngagementService interface {
	CaptureLead(ctx context.Context, req *models.LeadRequest) (*models.ChatLead, error)
	SaveConversation(ctx context.Context, req *models.ConversationRequest) error
	Subscribe(ctx context.Context, email string) (reactivated bool, err error)
	Unsubscribe(ctx context.Context, email string) error
	SubmitContact(ctx context.Context, req *models.ContactRequest, meta ClientMeta) (*models.ContactMessage, error)
}

// SeedService loads catalog fixtures
type SeedService interface {
	Load(ctx context.Context, r io.Reader) (*models.SeedReport, error)
	LoadFile(ctx context.Context, path string) (*models.SeedReport, error)
}

// Services holds all service interfaces
type Services struct {
	Catalog    CatalogService
	Engagement EngagementService
	Seed       SeedService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, notifiers Notifiers, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Catalog:    NewCatalogService(repos.Catalog, repos.Taxonomy, cfg.Catalog, log),
		Engagement: NewEngagementService(repos, notifiers, cfg.Notifier, log),
		Seed:       NewSeedService(repos.Taxonomy, repos.Content, log),
	}
}
