package repository

import (
	"context"
	"time"

	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/models"
)

// CatalogFilter is a validated catalog query. Taxonomy filters are already resolved to ids.
type CatalogFilter struct {
	Kind         models.Kind
	Now          time.Time
	Search       string
	CategoryID   *string
	TechnologyID *string
	TagID        *string
	From         *time.Time
	To           *time.Time
}

// RelatedQuery selects items related to a focal item
type RelatedQuery struct {
	Kind      models.Kind
	Now       time.Time
	ExcludeID string
	// Items sharing any non-nil key below, or manually linked, are related
	CategoryID    *string
	TechnologyID  *string
	IncludeManual bool
	Limit         int
}

// HasRelation reports whether the query can match anything at all
func (q RelatedQuery) HasRelation() bool {
	return q.CategoryID != nil || q.TechnologyID != nil || q.IncludeManual
}

// CatalogRepository defines the read and counter operations of the published-content catalog
type CatalogRepository interface {
	CountVisible(ctx context.Context, filter CatalogFilter) (int, error)
	ListVisible(ctx context.Context, filter CatalogFilter, sort models.SortOrder, limit, offset int) ([]*models.ContentItem, error)
	GetVisibleBySlug(ctx context.Context, kind models.Kind, slug string, now time.Time) (*models.ContentItem, error)
	IncrementViewCount(ctx context.Context, id string) (int64, error)
	FindRelated(ctx context.Context, q RelatedQuery) ([]*models.ContentItem, error)
	ListFeatured(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ContentItem, error)
	CategoryCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error)
	TechnologyCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error)
	PopularTags(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]models.TaxonomyCount, error)
	TagsFor(ctx context.Context, contentID string) ([]models.Tag, error)
	TechnologiesFor(ctx context.Context, contentID string) ([]models.Technology, error)
	CountVisibleByKind(ctx context.Context, now time.Time) (map[models.Kind]int, error)
	CodeSnippetsFor(ctx context.Context, technologyName string, limit int) ([]models.CodeSnippet, error)
}

// ContentWriter is used by the seed loader; the public API never writes content
type ContentWriter interface {
	Upsert(ctx context.Context, item *models.ContentItem) error
	ReplaceLinks(ctx context.Context, contentID string, tagIDs, technologyIDs []string) error
	ReplaceRelated(ctx context.Context, contentID string, relatedIDs []string) error
	IDBySlug(ctx context.Context, kind models.Kind, slug string) (string, error)
	UpsertSnippet(ctx context.Context, snippet *models.CodeSnippet, tagIDs []string) error
}

// CatalogStore is the full catalog table surface
type CatalogStore interface {
	CatalogRepository
	ContentWriter
}

// TaxonomyRepository defines lookups and upserts for categories, tags and technologies
type TaxonomyRepository interface {
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	TagBySlug(ctx context.Context, slug string) (*models.Tag, error)
	TechnologyBySlug(ctx context.Context, slug string) (*models.Technology, error)
	UpsertCategory(ctx context.Context, c *models.Category) error
	UpsertTag(ctx context.Context, t *models.Tag) error
	UpsertTechnology(ctx context.Context, t *models.Technology) error
}

// LeadRepository defines chatbot lead operations
type LeadRepository interface {
	UpsertByEmail(ctx context.Context, lead *models.ChatLead) (created bool, err error)
	GetByEmail(ctx context.Context, email string) (*models.ChatLead, error)
	CreateConversation(ctx context.Context, conv *models.ChatConversation) error
	UpdateLatestConversation(ctx context.Context, leadID string, messages models.ChatMessages) (bool, error)
	Count(ctx context.Context) (int, error)
}

// NewsletterRepository defines newsletter subscription operations
type NewsletterRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	Create(ctx context.Context, sub *models.NewsletterSubscription) error
	SetActive(ctx context.Context, email string, active bool, at time.Time) error
	CountActive(ctx context.Context) (int, error)
}

// ContactRepository defines contact message operations
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Catalog    CatalogRepository
	Content    ContentWriter
	Taxonomy   TaxonomyRepository
	Lead       LeadRepository
	Newsletter NewsletterRepository
	Contact    ContactRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	catalog := NewCatalogRepo(db)
	return &Repositories{
		Catalog:    catalog,
		Content:    catalog,
		Taxonomy:   NewTaxonomyRepo(db),
		Lead:       NewLeadRepo(db),
		Newsletter: NewNewsletterRepo(db),
		Contact:    NewContactRepo(db),
	}
}
