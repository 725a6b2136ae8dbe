package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.CatalogStore         = (*MockCatalogRepository)(nil)
	_ repository.TaxonomyRepository   = (*MockTaxonomyRepository)(nil)
	_ repository.LeadRepository       = (*MockLeadRepository)(nil)
	_ repository.NewsletterRepository = (*MockNewsletterRepository)(nil)
	_ repository.ContactRepository    = (*MockContactRepository)(nil)
)

// MockCatalogRepository is an in-memory CatalogStore applying the same
// visibility, filter and ordering rules as the SQL repository
type MockCatalogRepository struct {
	mu      sync.RWMutex
	Items   map[string]*models.ContentItem
	TagIDs  map[string][]string // content id -> tag ids
	TechIDs map[string][]string // content id -> technology ids
	Related map[string][]string // content id -> manually related ids

	Tags         map[string]models.Tag
	Technologies map[string]models.Technology

	Snippets      map[string]*models.CodeSnippet // snippet id -> snippet
	SnippetTagIDs map[string][]string            // snippet id -> tag ids

	CategoryCountList   []models.TaxonomyCount
	TechnologyCountList []models.TaxonomyCount
	PopularTagList      []models.TaxonomyCount

	CountErr            error
	ListErr             error
	GetErr              error
	IncrementErr        error
	RelatedErr          error
	FeaturedErr         error
	CategoryCountsErr   error
	TechnologyCountsErr error
	PopularTagsErr      error
	TagsForErr          error
	TechnologiesForErr  error
	CodeSnippetsErr     error
	UpsertErr           error

	IncrementCalls  int
	LastFilter      repository.CatalogFilter
	LastSort        models.SortOrder
	LastLimit       int
	LastOffset      int
	LastRelated     repository.RelatedQuery
	LastPopularTags int
	LastSnippetTech string
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		Items:         make(map[string]*models.ContentItem),
		TagIDs:        make(map[string][]string),
		TechIDs:       make(map[string][]string),
		Related:       make(map[string][]string),
		Tags:          make(map[string]models.Tag),
		Technologies:  make(map[string]models.Technology),
		Snippets:      make(map[string]*models.CodeSnippet),
		SnippetTagIDs: make(map[string][]string),
	}
}

// Add stores an item, assigning an id when missing
func (m *MockCatalogRepository) Add(item *models.ContentItem) *models.ContentItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	m.Items[item.ID] = item
	return item
}

// ViewCount returns the stored counter of an item
func (m *MockCatalogRepository) ViewCount(id string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Items[id].ViewCount
}

func (m *MockCatalogRepository) matches(item *models.ContentItem, f repository.CatalogFilter) bool {
	if item.Kind != f.Kind || !item.IsVisible(f.Now) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Title), needle) &&
			!strings.Contains(strings.ToLower(item.Summary), needle) &&
			!strings.Contains(strings.ToLower(item.Body), needle) {
			return false
		}
	}
	if f.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *f.CategoryID) {
		return false
	}
	if f.TechnologyID != nil {
		primary := item.TechnologyID != nil && *item.TechnologyID == *f.TechnologyID
		if !primary && !contains(m.TechIDs[item.ID], *f.TechnologyID) {
			return false
		}
	}
	if f.TagID != nil && !contains(m.TagIDs[item.ID], *f.TagID) {
		return false
	}
	if f.From != nil && item.PublishedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && item.PublishedAt.After(*f.To) {
		return false
	}
	return true
}

func (m *MockCatalogRepository) selectItems(f repository.CatalogFilter, order models.SortOrder) []*models.ContentItem {
	var out []*models.ContentItem
	for _, item := range m.Items {
		if m.matches(item, f) {
			copied := *item
			out = append(out, &copied)
		}
	}
	sortItems(out, f.Kind, order)
	return out
}

func (m *MockCatalogRepository) CountVisible(ctx context.Context, filter repository.CatalogFilter) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selectItems(filter, models.SortDefault)), nil
}

func (m *MockCatalogRepository) ListVisible(ctx context.Context, filter repository.CatalogFilter, order models.SortOrder, limit, offset int) ([]*models.ContentItem, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	m.LastFilter, m.LastSort, m.LastLimit, m.LastOffset = filter, order, limit, offset
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.selectItems(filter, order)
	if offset >= len(items) {
		return []*models.ContentItem{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (m *MockCatalogRepository) GetVisibleBySlug(ctx context.Context, kind models.Kind, slug string, now time.Time) (*models.ContentItem, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.Items {
		if item.Kind == kind && item.Slug == slug && item.IsVisible(now) {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockCatalogRepository) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncrementCalls++
	if m.IncrementErr != nil {
		return 0, m.IncrementErr
	}
	item, ok := m.Items[id]
	if !ok {
		return 0, repository.ErrContentNotFound
	}
	item.ViewCount++
	return item.ViewCount, nil
}

func (m *MockCatalogRepository) FindRelated(ctx context.Context, q repository.RelatedQuery) ([]*models.ContentItem, error) {
	m.mu.Lock()
	m.LastRelated = q
	m.mu.Unlock()
	if m.RelatedErr != nil {
		return nil, m.RelatedErr
	}
	if !q.HasRelation() {
		return []*models.ContentItem{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	manual := m.Related[q.ExcludeID]
	var out []*models.ContentItem
	for _, item := range m.selectItems(repository.CatalogFilter{Kind: q.Kind, Now: q.Now}, models.SortDefault) {
		if item.ID == q.ExcludeID {
			continue
		}
		sameCategory := q.CategoryID != nil && item.CategoryID != nil && *item.CategoryID == *q.CategoryID
		sameTech := q.TechnologyID != nil && item.TechnologyID != nil && *item.TechnologyID == *q.TechnologyID
		linked := q.IncludeManual && contains(manual, item.ID)
		if sameCategory || sameTech || linked {
			out = append(out, item)
		}
	}
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MockCatalogRepository) ListFeatured(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ContentItem, error) {
	if m.FeaturedErr != nil {
		return nil, m.FeaturedErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.ContentItem{}
	for _, item := range m.selectItems(repository.CatalogFilter{Kind: kind, Now: now}, models.SortDefault) {
		if item.IsFeatured && len(out) < limit {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockCatalogRepository) CategoryCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error) {
	if m.CategoryCountsErr != nil {
		return nil, m.CategoryCountsErr
	}
	return m.CategoryCountList, nil
}

func (m *MockCatalogRepository) TechnologyCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error) {
	if m.TechnologyCountsErr != nil {
		return nil, m.TechnologyCountsErr
	}
	return m.TechnologyCountList, nil
}

func (m *MockCatalogRepository) PopularTags(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]models.TaxonomyCount, error) {
	m.mu.Lock()
	m.LastPopularTags = limit
	m.mu.Unlock()
	if m.PopularTagsErr != nil {
		return nil, m.PopularTagsErr
	}
	if len(m.PopularTagList) > limit {
		return m.PopularTagList[:limit], nil
	}
	return m.PopularTagList, nil
}

func (m *MockCatalogRepository) TagsFor(ctx context.Context, contentID string) ([]models.Tag, error) {
	if m.TagsForErr != nil {
		return nil, m.TagsForErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Tag{}
	for _, id := range m.TagIDs[contentID] {
		out = append(out, m.Tags[id])
	}
	return out, nil
}

func (m *MockCatalogRepository) TechnologiesFor(ctx context.Context, contentID string) ([]models.Technology, error) {
	if m.TechnologiesForErr != nil {
		return nil, m.TechnologiesForErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Technology{}
	for _, id := range m.TechIDs[contentID] {
		out = append(out, m.Technologies[id])
	}
	return out, nil
}

func (m *MockCatalogRepository) CountVisibleByKind(ctx context.Context, now time.Time) (map[models.Kind]int, error) {
	if m.CountErr != nil {
		return nil, m.CountErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[models.Kind]int, len(models.Kinds))
	for _, k := range models.Kinds {
		counts[k] = 0
	}
	for _, item := range m.Items {
		if item.IsVisible(now) {
			counts[item.Kind]++
		}
	}
	return counts, nil
}

func (m *MockCatalogRepository) Upsert(ctx context.Context, item *models.ContentItem) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.Items {
		if existing.Kind == item.Kind && existing.Slug == item.Slug {
			item.ID = id
			item.ViewCount = existing.ViewCount
			m.Items[id] = item
			return nil
		}
	}
	item.ID = uuid.New().String()
	m.Items[item.ID] = item
	return nil
}

func (m *MockCatalogRepository) ReplaceLinks(ctx context.Context, contentID string, tagIDs, technologyIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TagIDs[contentID] = tagIDs
	m.TechIDs[contentID] = technologyIDs
	return nil
}

func (m *MockCatalogRepository) ReplaceRelated(ctx context.Context, contentID string, relatedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Related[contentID] = relatedIDs
	return nil
}

func (m *MockCatalogRepository) IDBySlug(ctx context.Context, kind models.Kind, slug string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, item := range m.Items {
		if item.Kind == kind && item.Slug == slug {
			return id, nil
		}
	}
	return "", nil
}

func (m *MockCatalogRepository) CodeSnippetsFor(ctx context.Context, technologyName string, limit int) ([]models.CodeSnippet, error) {
	m.mu.Lock()
	m.LastSnippetTech = technologyName
	m.mu.Unlock()
	if m.CodeSnippetsErr != nil {
		return nil, m.CodeSnippetsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(technologyName))
	if needle == "" || limit <= 0 {
		return []models.CodeSnippet{}, nil
	}

	out := m.snippetsWhere(func(s *models.CodeSnippet) bool {
		return strings.Contains(strings.ToLower(s.Language), needle)
	})
	if len(out) == 0 {
		out = m.snippetsWhere(func(s *models.CodeSnippet) bool {
			for _, tagID := range m.SnippetTagIDs[s.ID] {
				if strings.Contains(strings.ToLower(m.Tags[tagID].Name), needle) {
					return true
				}
			}
			return false
		})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// snippetsWhere returns matching snippets newest first
func (m *MockCatalogRepository) snippetsWhere(match func(*models.CodeSnippet) bool) []models.CodeSnippet {
	out := []models.CodeSnippet{}
	for _, s := range m.Snippets {
		if match(s) {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MockCatalogRepository) UpsertSnippet(ctx context.Context, snippet *models.CodeSnippet, tagIDs []string) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snippet.ID = ""
	for id, existing := range m.Snippets {
		if existing.Slug == snippet.Slug {
			snippet.ID = id
		}
	}
	if snippet.ID == "" {
		snippet.ID = uuid.New().String()
	}
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}
	m.Snippets[snippet.ID] = snippet
	m.SnippetTagIDs[snippet.ID] = tagIDs
	return nil
}

// sortItems mirrors the ORDER BY clauses of the query builder
func sortItems(items []*models.ContentItem, kind models.Kind, order models.SortOrder) {
	published := func(i *models.ContentItem) time.Time {
		if i.PublishedAt == nil {
			return time.Time{}
		}
		return *i.PublishedAt
	}
	type key func(a, b *models.ContentItem) int
	desc := func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	}
	byTime := func(f func(*models.ContentItem) time.Time) key {
		return func(a, b *models.ContentItem) int { return desc(f(a).UnixNano(), f(b).UnixNano()) }
	}
	created := byTime(func(i *models.ContentItem) time.Time { return i.CreatedAt })

	var keys []key
	switch order {
	case models.SortNewest:
		keys = []key{byTime(published), created}
	case models.SortMostViewed:
		keys = []key{func(a, b *models.ContentItem) int { return desc(a.ViewCount, b.ViewCount) }, byTime(published)}
	case models.SortMostHelpful:
		keys = []key{func(a, b *models.ContentItem) int { return desc(int64(a.HelpfulCount), int64(b.HelpfulCount)) }, created}
	case models.SortAlphabetical:
		keys = []key{func(a, b *models.ContentItem) int { return strings.Compare(a.Title, b.Title) }}
	default:
		switch kind {
		case models.KindProject, models.KindService:
			keys = []key{func(a, b *models.ContentItem) int { return desc(int64(a.OrderPriority), int64(b.OrderPriority)) }, created}
		case models.KindSolution:
			keys = []key{func(a, b *models.ContentItem) int { return desc(int64(a.HelpfulCount), int64(b.HelpfulCount)) }, created}
		default:
			keys = []key{byTime(published), created}
		}
	}
	keys = append(keys, func(a, b *models.ContentItem) int { return strings.Compare(a.ID, b.ID) })

	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			if c := k(items[i], items[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// MockTaxonomyRepository is an in-memory TaxonomyRepository keyed by slug
type MockTaxonomyRepository struct {
	mu           sync.Mutex
	Categories   map[string]*models.Category
	Tags         map[string]*models.Tag
	Technologies map[string]*models.Technology
	LookupErr    error
}

func NewMockTaxonomyRepository() *MockTaxonomyRepository {
	return &MockTaxonomyRepository{
		Categories:   make(map[string]*models.Category),
		Tags:         make(map[string]*models.Tag),
		Technologies: make(map[string]*models.Technology),
	}
}

func (m *MockTaxonomyRepository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Categories[slug], nil
}

func (m *MockTaxonomyRepository) TagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tags[slug], nil
}

func (m *MockTaxonomyRepository) TechnologyBySlug(ctx context.Context, slug string) (*models.Technology, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Technologies[slug], nil
}

func (m *MockTaxonomyRepository) UpsertCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Categories[c.Slug]; ok {
		c.ID = existing.ID
	} else {
		c.ID = uuid.New().String()
	}
	m.Categories[c.Slug] = c
	return nil
}

func (m *MockTaxonomyRepository) UpsertTag(ctx context.Context, t *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Tags[t.Slug]; ok {
		t.ID = existing.ID
	} else {
		t.ID = uuid.New().String()
	}
	m.Tags[t.Slug] = t
	return nil
}

func (m *MockTaxonomyRepository) UpsertTechnology(ctx context.Context, t *models.Technology) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.Technologies[t.Slug]; ok {
		t.ID = existing.ID
	} else {
		t.ID = uuid.New().String()
	}
	m.Technologies[t.Slug] = t
	return nil
}

// MockLeadRepository is a mock implementation of LeadRepository
type MockLeadRepository struct {
	Leads         map[string]*models.ChatLead
	Conversations map[string][]*models.ChatConversation // lead id -> conversations
	UpsertErr     error
}

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{
		Leads:         make(map[string]*models.ChatLead),
		Conversations: make(map[string][]*models.ChatConversation),
	}
}

func (m *MockLeadRepository) UpsertByEmail(ctx context.Context, lead *models.ChatLead) (bool, error) {
	if m.UpsertErr != nil {
		return false, m.UpsertErr
	}
	if existing, ok := m.Leads[lead.Email]; ok {
		lead.ID = existing.ID
		lead.CreatedAt = existing.CreatedAt
		m.Leads[lead.Email] = lead
		return false, nil
	}
	lead.ID = uuid.New().String()
	lead.CreatedAt = time.Now()
	m.Leads[lead.Email] = lead
	return true, nil
}

func (m *MockLeadRepository) GetByEmail(ctx context.Context, email string) (*models.ChatLead, error) {
	return m.Leads[email], nil
}

func (m *MockLeadRepository) CreateConversation(ctx context.Context, conv *models.ChatConversation) error {
	conv.ID = uuid.New().String()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	m.Conversations[conv.LeadID] = append(m.Conversations[conv.LeadID], conv)
	return nil
}

func (m *MockLeadRepository) UpdateLatestConversation(ctx context.Context, leadID string, messages models.ChatMessages) (bool, error) {
	convs := m.Conversations[leadID]
	if len(convs) == 0 {
		return false, nil
	}
	latest := convs[len(convs)-1]
	latest.Messages = messages
	latest.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockLeadRepository) Count(ctx context.Context) (int, error) {
	return len(m.Leads), nil
}

// MockNewsletterRepository is a mock implementation of NewsletterRepository
type MockNewsletterRepository struct {
	Subscriptions map[string]*models.NewsletterSubscription
}

func NewMockNewsletterRepository() *MockNewsletterRepository {
	return &MockNewsletterRepository{Subscriptions: make(map[string]*models.NewsletterSubscription)}
}

func (m *MockNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	return m.Subscriptions[email], nil
}

func (m *MockNewsletterRepository) Create(ctx context.Context, sub *models.NewsletterSubscription) error {
	sub.ID = uuid.New().String()
	sub.IsActive = true
	sub.SubscribedAt = time.Now()
	m.Subscriptions[sub.Email] = sub
	return nil
}

func (m *MockNewsletterRepository) SetActive(ctx context.Context, email string, active bool, at time.Time) error {
	sub, ok := m.Subscriptions[email]
	if !ok {
		return nil
	}
	sub.IsActive = active
	if active {
		sub.SubscribedAt = at
		sub.UnsubscribedAt = nil
	} else {
		sub.UnsubscribedAt = &at
	}
	return nil
}

func (m *MockNewsletterRepository) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, sub := range m.Subscriptions {
		if sub.IsActive {
			count++
		}
	}
	return count, nil
}

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	Messages  []*models.ContactMessage
	CreateErr error
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{}
}

func (m *MockContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now()
	m.Messages = append(m.Messages, msg)
	return nil
}

func (m *MockContactRepository) Count(ctx context.Context) (int, error) {
	return len(m.Messages), nil
}

// NewMockRepositories wires a full set of in-memory repositories
func NewMockRepositories() (*repository.Repositories, *MockCatalogRepository, *MockTaxonomyRepository) {
	catalog := NewMockCatalogRepository()
	taxonomy := NewMockTaxonomyRepository()
	return &repository.Repositories{
		Catalog:    catalog,
		Content:    catalog,
		Taxonomy:   taxonomy,
		Lead:       NewMockLeadRepository(),
		Newsletter: NewMockNewsletterRepository(),
		Contact:    NewMockContactRepository(),
	}, catalog, taxonomy
}
