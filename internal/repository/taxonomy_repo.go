package repository

import (
	"context"
	"database/sql"

	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/models"
)

// taxonomyRepo is the concrete implementation of TaxonomyRepository
type taxonomyRepo struct {
	db *database.DB
}

// NewTaxonomyRepo creates a new taxonomy repository
func NewTaxonomyRepo(db *database.DB) TaxonomyRepository {
	return &taxonomyRepo{db: db}
}

// CategoryBySlug retrieves a category, nil when absent
func (r *taxonomyRepo) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.db.GetContext(ctx, &c,
		"SELECT id, name, slug, description, parent_id, created_at FROM categories WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TagBySlug retrieves a tag, nil when absent
func (r *taxonomyRepo) TagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := r.db.GetContext(ctx, &t, "SELECT id, name, slug, created_at FROM tags WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TechnologyBySlug retrieves a technology, nil when absent
func (r *taxonomyRepo) TechnologyBySlug(ctx context.Context, slug string) (*models.Technology, error) {
	var t models.Technology
	err := r.db.GetContext(ctx, &t,
		"SELECT id, name, slug, tech_group, created_at FROM technologies WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertCategory inserts or renames a category keyed by slug
func (r *taxonomyRepo) UpsertCategory(ctx context.Context, c *models.Category) error {
	return r.db.GetContext(ctx, &c.ID, `
		INSERT INTO categories (name, slug, description, parent_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, parent_id = EXCLUDED.parent_id
		RETURNING id`,
		c.Name, c.Slug, c.Description, c.ParentID)
}

// UpsertTag inserts or renames a tag keyed by slug
func (r *taxonomyRepo) UpsertTag(ctx context.Context, t *models.Tag) error {
	return r.db.GetContext(ctx, &t.ID, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		t.Name, t.Slug)
}

// UpsertTechnology inserts or updates a technology keyed by slug
func (r *taxonomyRepo) UpsertTechnology(ctx context.Context, t *models.Technology) error {
	return r.db.GetContext(ctx, &t.ID, `
		INSERT INTO technologies (name, slug, tech_group) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, tech_group = EXCLUDED.tech_group
		RETURNING id`,
		t.Name, t.Slug, t.Group)
}
