package mocks

import (
	"context"
	"io"

	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/service"
)

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	ListFunc   func(ctx context.Context, kind models.Kind, params models.ListParams) (*models.ListPage, error)
	DetailFunc func(ctx context.Context, kind models.Kind, slug string) (*models.DetailPage, error)
	Counts     map[models.Kind]int
	ListCalls  []models.ListParams
}

// Verify interface compliance
var _ service.CatalogService = (*MockCatalogService)(nil)

func NewMockCatalogService() *MockCatalogService {
	return &MockCatalogService{Counts: make(map[models.Kind]int)}
}

func (m *MockCatalogService) List(ctx context.Context, kind models.Kind, params models.ListParams) (*models.ListPage, error) {
	m.ListCalls = append(m.ListCalls, params)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, kind, params)
	}
	return &models.ListPage{
		Kind:         kind,
		Items:        []*models.ContentItem{},
		PageInfo:     models.PageInfo{Page: 1, PageSize: 12, TotalPages: 1},
		Filters:      models.AppliedFilters{Sort: models.SortDefault},
		Categories:   []models.TaxonomyCount{},
		PopularTags:  []models.TaxonomyCount{},
		Technologies: []models.TaxonomyCount{},
		Featured:     []*models.ContentItem{},
	}, nil
}

func (m *MockCatalogService) Detail(ctx context.Context, kind models.Kind, slug string) (*models.DetailPage, error) {
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, kind, slug)
	}
	return nil, service.ErrNotFound
}

func (m *MockCatalogService) VisibleCounts(ctx context.Context) (map[models.Kind]int, error) {
	return m.Counts, nil
}

// MockEngagementService is a mock implementation of EngagementService
type MockEngagementService struct {
	CaptureLeadFunc      func(ctx context.Context, req *models.LeadRequest) (*models.ChatLead, error)
	SaveConversationFunc func(ctx context.Context, req *models.ConversationRequest) error
	SubscribeFunc        func(ctx context.Context, email string) (bool, error)
	UnsubscribeFunc      func(ctx context.Context, email string) error
	SubmitContactFunc    func(ctx context.Context, req *models.ContactRequest, meta service.ClientMeta) (*models.ContactMessage, error)

	LastMeta service.ClientMeta
}

// Verify interface compliance
var _ service.EngagementService = (*MockEngagementService)(nil)

func NewMockEngagementService() *MockEngagementService {
	return &MockEngagementService{}
}

func (m *MockEngagementService) CaptureLead(ctx context.Context, req *models.LeadRequest) (*models.ChatLead, error) {
	if m.CaptureLeadFunc != nil {
		return m.CaptureLeadFunc(ctx, req)
	}
	return &models.ChatLead{ID: "test-lead-id", Email: req.Email}, nil
}

func (m *MockEngagementService) SaveConversation(ctx context.Context, req *models.ConversationRequest) error {
	if m.SaveConversationFunc != nil {
		return m.SaveConversationFunc(ctx, req)
	}
	return nil
}

func (m *MockEngagementService) Subscribe(ctx context.Context, email string) (bool, error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, email)
	}
	return false, nil
}

func (m *MockEngagementService) Unsubscribe(ctx context.Context, email string) error {
	if m.UnsubscribeFunc != nil {
		return m.UnsubscribeFunc(ctx, email)
	}
	return nil
}

func (m *MockEngagementService) SubmitContact(ctx context.Context, req *models.ContactRequest, meta service.ClientMeta) (*models.ContactMessage, error) {
	m.LastMeta = meta
	if m.SubmitContactFunc != nil {
		return m.SubmitContactFunc(ctx, req, meta)
	}
	return &models.ContactMessage{ID: "test-contact-id", Email: req.Email}, nil
}

// MockSeedService is a mock implementation of SeedService
type MockSeedService struct {
	Report *models.SeedReport
	Err    error
}

// Verify interface compliance
var _ service.SeedService = (*MockSeedService)(nil)

func (m *MockSeedService) Load(ctx context.Context, r io.Reader) (*models.SeedReport, error) {
	return m.Report, m.Err
}

func (m *MockSeedService) LoadFile(ctx context.Context, path string) (*models.SeedReport, error) {
	return m.Report, m.Err
}
