package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/metrics"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Aggregate names used in logs and metrics
const (
	aggCategories   = "categories"
	aggPopularTags  = "popular_tags"
	aggTechnologies = "technologies"
	aggFeatured     = "featured"
	aggRelated      = "related"
	aggItemTags     = "item_tags"
	aggItemTechs    = "item_technologies"
	aggCodeSnippets = "code_snippets"
)

const dateOnly = "2006-01-02"

// catalogService is the concrete implementation of CatalogService
type catalogService struct {
	catalog  repository.CatalogRepository
	taxonomy repository.TaxonomyRepository
	cfg      config.CatalogConfig
	now      func() time.Time
	log      zerolog.Logger
}

// CatalogOption customises a catalog service
type CatalogOption func(*catalogService)

// WithClock overrides the clock used for the visibility cut-off
func WithClock(now func() time.Time) CatalogOption {
	return func(s *catalogService) { s.now = now }
}

// NewCatalogService creates a CatalogService
func NewCatalogService(catalog repository.CatalogRepository, taxonomy repository.TaxonomyRepository, cfg config.CatalogConfig, log zerolog.Logger, opts ...CatalogOption) CatalogService {
	s := &catalogService{
		catalog:  catalog,
		taxonomy: taxonomy,
		cfg:      cfg,
		now:      time.Now,
		log:      log.With().Str("service", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *catalogService) pageSize(kind models.Kind) int {
	switch kind {
	case models.KindProject:
		return s.cfg.ProjectPageSize
	case models.KindSolution:
		return s.cfg.SolutionPageSize
	case models.KindService:
		return s.cfg.ServicePageSize
	}
	return s.cfg.ArticlePageSize
}

func (s *catalogService) relatedCap(kind models.Kind) int {
	switch kind {
	case models.KindProject:
		return s.cfg.ProjectRelatedCap
	case models.KindSolution:
		return s.cfg.SolutionRelatedCap
	case models.KindService:
		return s.cfg.ServiceRelatedCap
	}
	return s.cfg.ArticleRelatedCap
}

// List returns one page of visible items of a kind with its sidebar aggregates
func (s *catalogService) List(ctx context.Context, kind models.Kind, params models.ListParams) (*models.ListPage, error) {
	if !models.ValidKinds[kind] {
		return nil, ErrNotFound
	}
	now := s.now()

	filter, applied, ignored := s.resolveFilters(ctx, kind, now, params)

	total, err := s.catalog.CountVisible(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", kind, err)
	}

	size := s.pageSize(kind)
	info := paginate(params.Page, total, size)

	items, err := s.catalog.ListVisible(ctx, filter, applied.Sort, size, (info.Page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	page := &models.ListPage{
		Kind:     kind,
		Items:    nonNil(items),
		PageInfo: info,
		Filters:  applied,
		Ignored:  ignored,
	}
	s.assembleList(ctx, kind, now, page)

	metrics.RecordCatalogPage(string(kind), "list")
	s.log.Debug().
		Str("kind", string(kind)).
		Int("total", total).
		Int("page", info.Page).
		Int("ignored_filters", len(ignored)).
		Msg("Listing assembled")

	return page, nil
}

// resolveFilters turns raw parameters into a repository filter. Anything that
// cannot be applied is dropped with a warning instead of failing the request.
func (s *catalogService) resolveFilters(ctx context.Context, kind models.Kind, now time.Time, params models.ListParams) (repository.CatalogFilter, models.AppliedFilters, []models.IgnoredFilter) {
	filter := repository.CatalogFilter{Kind: kind, Now: now}
	var applied models.AppliedFilters
	var ignored []models.IgnoredFilter

	ignore := func(param, value, reason string, err error) {
		s.log.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("param", param).
			Str("value", value).
			Msg("Ignoring listing filter: " + reason)
		metrics.RecordIgnoredFilter(string(kind), param)
		ignored = append(ignored, models.IgnoredFilter{Param: param, Value: value, Reason: reason})
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		filter.Search = search
		applied.Search = search
	}

	if slug := strings.TrimSpace(params.Category); slug != "" {
		c, err := s.taxonomy.CategoryBySlug(ctx, slug)
		switch {
		case err != nil:
			ignore("category", slug, "lookup failed", err)
		case c == nil:
			ignore("category", slug, "unknown category", nil)
		default:
			filter.CategoryID = &c.ID
			applied.Category = slug
		}
	}

	if slug := strings.TrimSpace(params.Tech); slug != "" {
		t, err := s.taxonomy.TechnologyBySlug(ctx, slug)
		switch {
		case err != nil:
			ignore("tech", slug, "lookup failed", err)
		case t == nil:
			ignore("tech", slug, "unknown technology", nil)
		default:
			filter.TechnologyID = &t.ID
			applied.Tech = slug
		}
	}

	if slug := strings.TrimSpace(params.Tag); slug != "" {
		t, err := s.taxonomy.TagBySlug(ctx, slug)
		switch {
		case err != nil:
			ignore("tag", slug, "lookup failed", err)
		case t == nil:
			ignore("tag", slug, "unknown tag", nil)
		default:
			filter.TagID = &t.ID
			applied.Tag = slug
		}
	}

	if raw := strings.TrimSpace(params.From); raw != "" {
		if from, err := parseDateBound(raw, false); err != nil {
			ignore("from", raw, "invalid date", err)
		} else {
			filter.From = &from
			applied.From = raw
		}
	}

	if raw := strings.TrimSpace(params.To); raw != "" {
		if to, err := parseDateBound(raw, true); err != nil {
			ignore("to", raw, "invalid date", err)
		} else {
			filter.To = &to
			applied.To = raw
		}
	}

	sort, ok := models.ParseSortOrder(strings.TrimSpace(params.Sort))
	if !ok {
		ignore("sort", params.Sort, "unknown sort order", nil)
	}
	applied.Sort = sort

	return filter, applied, ignored
}

// parseDateBound accepts RFC3339 or a bare date. A bare upper bound covers the whole day.
func parseDateBound(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// paginate clamps the requested page into [1, totalPages]
func paginate(raw string, total, size int) models.PageInfo {
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	page, err := strconv.Atoi(strings.TrimSpace(raw))
	var numErr *strconv.NumError
	switch {
	case errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && page > 0:
		// Too large for an int, so certainly past the end
		page = totalPages
	case err != nil || page < 1:
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return models.PageInfo{
		Page:        page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// aggregateGroup bounds the aggregate fan-out of one page in time and concurrency
func (s *catalogService) aggregateGroup(ctx context.Context) (context.Context, context.CancelFunc, *errgroup.Group) {
	cancel := context.CancelFunc(func() {})
	if s.cfg.AggregateTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AggregateTimeout)
	}
	g := new(errgroup.Group)
	if s.cfg.AggregateConcurrency > 0 {
		g.SetLimit(s.cfg.AggregateConcurrency)
	}
	return ctx, cancel, g
}

// assembleList computes the listing aggregates concurrently
func (s *catalogService) assembleList(ctx context.Context, kind models.Kind, now time.Time, page *models.ListPage) {
	ctx, cancel, g := s.aggregateGroup(ctx)
	defer cancel()

	var (
		categories   Result[[]models.TaxonomyCount]
		tags         Result[[]models.TaxonomyCount]
		technologies Result[[]models.TaxonomyCount]
		featured     Result[[]*models.ContentItem]
	)

	g.Go(func() error {
		categories = resultOf(s.catalog.CategoryCounts(ctx, kind, now))
		return nil
	})
	g.Go(func() error {
		tags = resultOf(s.catalog.PopularTags(ctx, kind, now, s.cfg.PopularTagLimit))
		return nil
	})
	g.Go(func() error {
		technologies = resultOf(s.catalog.TechnologyCounts(ctx, kind, now))
		return nil
	})
	g.Go(func() error {
		featured = resultOf(s.catalog.ListFeatured(ctx, kind, now, s.cfg.FeaturedLimit))
		return nil
	})
	_ = g.Wait()

	page.Categories = nonNil(unwrap(s.log, kind, aggCategories, categories, []models.TaxonomyCount{}))
	page.PopularTags = nonNil(unwrap(s.log, kind, aggPopularTags, tags, []models.TaxonomyCount{}))
	page.Technologies = nonNil(unwrap(s.log, kind, aggTechnologies, technologies, []models.TaxonomyCount{}))
	page.Featured = nonNil(unwrap(s.log, kind, aggFeatured, featured, []*models.ContentItem{}))
}

// Detail returns one visible item, counts the view and attaches related items
func (s *catalogService) Detail(ctx context.Context, kind models.Kind, slug string) (*models.DetailPage, error) {
	if !models.ValidKinds[kind] {
		return nil, ErrNotFound
	}
	now := s.now()

	item, err := s.catalog.GetVisibleBySlug(ctx, kind, slug, now)
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", kind, slug, err)
	}
	if item == nil {
		return nil, ErrNotFound
	}

	s.countView(ctx, item)

	page := &models.DetailPage{Item: item}
	s.assembleDetail(ctx, now, page)

	metrics.RecordCatalogPage(string(kind), "detail")
	return page, nil
}

// countView increments the stored counter and refreshes the item from it.
// On failure the item keeps the count it was read with.
func (s *catalogService) countView(ctx context.Context, item *models.ContentItem) {
	count, err := s.catalog.IncrementViewCount(ctx, item.ID)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("kind", string(item.Kind)).
			Str("id", item.ID).
			Int64("stale_view_count", item.ViewCount).
			Msg("Failed to increment view count")
		metrics.RecordViewCountFailure(string(item.Kind))
		return
	}
	item.ViewCount = count
}

// relatedQuery describes how items of the focal item's kind relate to it
func (s *catalogService) relatedQuery(item *models.ContentItem, now time.Time) repository.RelatedQuery {
	q := repository.RelatedQuery{
		Kind:      item.Kind,
		Now:       now,
		ExcludeID: item.ID,
		Limit:     s.relatedCap(item.Kind),
	}
	if item.Kind == models.KindSolution {
		q.TechnologyID = item.TechnologyID
		q.IncludeManual = true
	} else {
		q.CategoryID = item.CategoryID
	}
	return q
}

// assembleDetail computes the detail aggregates concurrently
func (s *catalogService) assembleDetail(ctx context.Context, now time.Time, page *models.DetailPage) {
	ctx, cancel, g := s.aggregateGroup(ctx)
	defer cancel()

	item := page.Item
	var (
		related      Result[[]*models.ContentItem]
		tags         Result[[]models.Tag]
		technologies Result[[]models.Technology]
		snippets     Result[[]models.CodeSnippet]
	)

	g.Go(func() error {
		related = resultOf(s.catalog.FindRelated(ctx, s.relatedQuery(item, now)))
		return nil
	})
	g.Go(func() error {
		tags = resultOf(s.catalog.TagsFor(ctx, item.ID))
		return nil
	})
	g.Go(func() error {
		technologies = resultOf(s.catalog.TechnologiesFor(ctx, item.ID))
		return nil
	})
	// Solutions show snippets for their technology
	techName := ""
	if item.Kind == models.KindSolution && item.TechnologyName != nil {
		techName = *item.TechnologyName
	}
	if techName != "" {
		g.Go(func() error {
			snippets = resultOf(s.catalog.CodeSnippetsFor(ctx, techName, s.cfg.CodeSnippetLimit))
			return nil
		})
	}
	_ = g.Wait()

	page.Related = nonNil(unwrap(s.log, item.Kind, aggRelated, related, []*models.ContentItem{}))
	page.Tags = nonNil(unwrap(s.log, item.Kind, aggItemTags, tags, []models.Tag{}))
	page.Technologies = nonNil(unwrap(s.log, item.Kind, aggItemTechs, technologies, []models.Technology{}))
	if item.Kind == models.KindSolution {
		page.CodeSnippets = nonNil(unwrap(s.log, item.Kind, aggCodeSnippets, snippets, []models.CodeSnippet{}))
	}
}

// VisibleCounts returns the number of visible items per kind
func (s *catalogService) VisibleCounts(ctx context.Context) (map[models.Kind]int, error) {
	return s.catalog.CountVisibleByKind(ctx, s.now())
}
