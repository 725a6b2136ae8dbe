package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/pulcova-api/internal/validation"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// seedService is the concrete implementation of SeedService
type seedService struct {
	taxonomy repository.TaxonomyRepository
	content  repository.ContentWriter
	log      zerolog.Logger
}

// NewSeedService creates a SeedService
func NewSeedService(taxonomy repository.TaxonomyRepository, content repository.ContentWriter, log zerolog.Logger) SeedService {
	return &seedService{
		taxonomy: taxonomy,
		content:  content,
		log:      log.With().Str("service", "seed").Logger(),
	}
}

// LoadFile loads a YAML fixture from disk
func (s *seedService) LoadFile(ctx context.Context, path string) (*models.SeedReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s.log.Info().Str("file", path).Msg("Loading seed fixture")
	return s.Load(ctx, file)
}

// seedRun carries the slug to id maps built while loading
type seedRun struct {
	report     *models.SeedReport
	validator  *validation.Validator
	categories map[string]string
	tags       map[string]string
	techs      map[string]string
	content    map[string]string // kind/slug
}

func (r *seedRun) reject(section string, index int, errs []validation.ValidationError) {
	r.report.Skipped++
	for _, e := range errs {
		value := ""
		if e.Value != nil {
			value = fmt.Sprint(e.Value)
		}
		r.report.Errors = append(r.report.Errors, models.SeedValidationError{
			Section: section,
			Index:   index,
			Field:   e.Field,
			Message: e.Message,
			Value:   value,
		})
	}
}

// Load validates and upserts every record of a fixture. Invalid records are
// reported and skipped; a storage failure aborts the run.
func (s *seedService) Load(ctx context.Context, r io.Reader) (*models.SeedReport, error) {
	start := time.Now()

	var fixture models.SeedFixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	run := &seedRun{
		report:     &models.SeedReport{},
		validator:  validation.NewValidator(),
		categories: make(map[string]string),
		tags:       make(map[string]string),
		techs:      make(map[string]string),
		content:    make(map[string]string),
	}

	if err := s.loadTaxonomy(ctx, run, &fixture); err != nil {
		return nil, err
	}

	type pending struct {
		index int
		id    string
	}
	var pendingRelated []pending
	for i := range fixture.Content {
		rec := &fixture.Content[i]
		if errs := run.validator.ValidateContent(rec); len(errs) > 0 {
			run.reject("content", i, errs)
			continue
		}
		id, err := s.upsertContent(ctx, run, rec)
		if err != nil {
			return nil, fmt.Errorf("content %s/%s: %w", rec.Kind, rec.Slug, err)
		}
		run.validator.AddContentSlug(rec.Kind, rec.Slug)
		run.content[rec.Kind+"/"+rec.Slug] = id
		run.report.Content++
		if len(rec.Related) > 0 {
			pendingRelated = append(pendingRelated, pending{index: i, id: id})
		}
	}

	// Related links may point forward in the fixture, so they are written last
	for _, p := range pendingRelated {
		rec := &fixture.Content[p.index]
		if err := s.linkRelated(ctx, run, p.index, p.id, rec); err != nil {
			return nil, fmt.Errorf("related %s/%s: %w", rec.Kind, rec.Slug, err)
		}
	}

	for i := range fixture.Snippets {
		rec := &fixture.Snippets[i]
		if errs := run.validator.ValidateSnippet(rec); len(errs) > 0 {
			run.reject("snippets", i, errs)
			continue
		}
		if err := s.upsertSnippet(ctx, run, rec); err != nil {
			return nil, fmt.Errorf("snippet %s: %w", rec.Slug, err)
		}
		run.validator.AddSnippetSlug(rec.Slug)
		run.report.Snippets++
	}

	run.report.DurationMs = time.Since(start).Milliseconds()
	s.log.Info().
		Int("categories", run.report.Categories).
		Int("tags", run.report.Tags).
		Int("technologies", run.report.Technologies).
		Int("content", run.report.Content).
		Int("snippets", run.report.Snippets).
		Int("skipped", run.report.Skipped).
		Int64("duration_ms", run.report.DurationMs).
		Msg("Seed completed")

	return run.report, nil
}

func (s *seedService) loadTaxonomy(ctx context.Context, run *seedRun, fixture *models.SeedFixture) error {
	for i := range fixture.Categories {
		rec := &fixture.Categories[i]
		if errs := run.validator.ValidateCategory(rec); len(errs) > 0 {
			run.reject("categories", i, errs)
			continue
		}
		c := &models.Category{Name: rec.Name, Slug: rec.Slug, Description: rec.Description}
		if rec.Parent != "" {
			parentID := run.categories[rec.Parent]
			c.ParentID = &parentID
		}
		if err := s.taxonomy.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("category %s: %w", rec.Slug, err)
		}
		run.validator.AddCategorySlug(rec.Slug)
		run.categories[rec.Slug] = c.ID
		run.report.Categories++
	}

	for i := range fixture.Tags {
		rec := &fixture.Tags[i]
		if errs := run.validator.ValidateTag(rec); len(errs) > 0 {
			run.reject("tags", i, errs)
			continue
		}
		t := &models.Tag{Name: rec.Name, Slug: rec.Slug}
		if err := s.taxonomy.UpsertTag(ctx, t); err != nil {
			return fmt.Errorf("tag %s: %w", rec.Slug, err)
		}
		run.validator.AddTagSlug(rec.Slug)
		run.tags[rec.Slug] = t.ID
		run.report.Tags++
	}

	for i := range fixture.Technologies {
		rec := &fixture.Technologies[i]
		if errs := run.validator.ValidateTechnology(rec); len(errs) > 0 {
			run.reject("technologies", i, errs)
			continue
		}
		group := rec.Group
		if group == "" {
			group = "other"
		}
		t := &models.Technology{Name: rec.Name, Slug: rec.Slug, Group: group}
		if err := s.taxonomy.UpsertTechnology(ctx, t); err != nil {
			return fmt.Errorf("technology %s: %w", rec.Slug, err)
		}
		run.validator.AddTechnologySlug(rec.Slug)
		run.techs[rec.Slug] = t.ID
		run.report.Technologies++
	}
	return nil
}

func (s *seedService) upsertContent(ctx context.Context, run *seedRun, rec *models.ContentRecord) (string, error) {
	item := &models.ContentItem{
		Kind:          models.Kind(rec.Kind),
		Slug:          rec.Slug,
		Title:         rec.Title,
		Summary:       rec.Summary,
		Body:          rec.Body,
		IsPublished:   rec.Status != "draft",
		IsFeatured:    rec.Featured,
		OrderPriority: rec.OrderPriority,
		HelpfulCount:  rec.HelpfulCount,
		ReadingTime:   rec.ReadingTime,
		Difficulty:    rec.Difficulty,
		Attributes:    models.Attributes(rec.Attributes),
	}

	if item.IsPublished {
		publishedAt := time.Now().UTC()
		if rec.PublishedAt != "" {
			publishedAt, _ = time.Parse(time.RFC3339, rec.PublishedAt)
		}
		item.PublishedAt = &publishedAt
	}
	if id, ok := run.categories[rec.Category]; ok {
		item.CategoryID = &id
	}
	if id, ok := run.techs[rec.Technology]; ok {
		item.TechnologyID = &id
	}

	if err := s.content.Upsert(ctx, item); err != nil {
		return "", err
	}

	tagIDs := make([]string, 0, len(rec.Tags))
	for _, slug := range rec.Tags {
		tagIDs = append(tagIDs, run.tags[slug])
	}
	techIDs := make([]string, 0, len(rec.TechStack))
	for _, slug := range rec.TechStack {
		techIDs = append(techIDs, run.techs[slug])
	}
	if err := s.content.ReplaceLinks(ctx, item.ID, tagIDs, techIDs); err != nil {
		return "", err
	}
	return item.ID, nil
}

func (s *seedService) upsertSnippet(ctx context.Context, run *seedRun, rec *models.SnippetRecord) error {
	snippet := &models.CodeSnippet{
		Slug:        rec.Slug,
		Title:       rec.Title,
		Description: rec.Description,
		Code:        rec.Code,
		Language:    rec.Language,
	}
	if rec.CreatedAt != "" {
		snippet.CreatedAt, _ = time.Parse(time.RFC3339, rec.CreatedAt)
	}

	tagIDs := make([]string, 0, len(rec.Tags))
	for _, slug := range rec.Tags {
		tagIDs = append(tagIDs, run.tags[slug])
	}
	return s.content.UpsertSnippet(ctx, snippet, tagIDs)
}

// linkRelated resolves related slugs within the same kind, falling back to
// content already stored by an earlier run
func (s *seedService) linkRelated(ctx context.Context, run *seedRun, index int, id string, rec *models.ContentRecord) error {
	relatedIDs := make([]string, 0, len(rec.Related))
	for _, slug := range rec.Related {
		relID, ok := run.content[rec.Kind+"/"+slug]
		if !ok {
			var err error
			relID, err = s.content.IDBySlug(ctx, models.Kind(rec.Kind), slug)
			if err != nil {
				return err
			}
		}
		if relID == "" {
			run.report.Errors = append(run.report.Errors, models.SeedValidationError{
				Section: "content",
				Index:   index,
				Field:   "related",
				Message: "referenced content does not exist",
				Value:   slug,
			})
			continue
		}
		relatedIDs = append(relatedIDs, relID)
	}
	return s.content.ReplaceRelated(ctx, id, relatedIDs)
}
