package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/models"
)

// ErrContentNotFound is returned by counter updates on a missing row
var ErrContentNotFound = errors.New("content item not found")

const contentColumns = `ci.id, ci.kind, ci.slug, ci.title, ci.summary, ci.body, ci.is_published, ci.published_at,
		ci.is_featured, ci.order_priority, ci.helpful_count, ci.view_count, ci.reading_time_minutes, ci.difficulty,
		ci.category_id, ci.technology_id, ci.attributes, ci.created_at, ci.updated_at,
		c.slug AS category_slug, c.name AS category_name, t.slug AS technology_slug, t.name AS technology_name`

const contentFrom = `FROM content_items ci
		LEFT JOIN categories c ON c.id = ci.category_id
		LEFT JOIN technologies t ON t.id = ci.technology_id`

// catalogRepo is the concrete implementation of CatalogStore
type catalogRepo struct {
	db *database.DB
	qb *CatalogQueryBuilder
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *database.DB) CatalogStore {
	return &catalogRepo{db: db, qb: NewCatalogQueryBuilder()}
}

// CountVisible counts the visible items matching the filter
func (r *catalogRepo) CountVisible(ctx context.Context, filter CatalogFilter) (int, error) {
	where, args := r.qb.BuildWhereClause(filter, "ci")
	query := "SELECT COUNT(*) FROM content_items ci " + where

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count visible %s: %w", filter.Kind, err)
	}
	return count, nil
}

// ListVisible returns one page of visible items matching the filter
func (r *catalogRepo) ListVisible(ctx context.Context, filter CatalogFilter, sort models.SortOrder, limit, offset int) ([]*models.ContentItem, error) {
	where, args := r.qb.BuildWhereClause(filter, "ci")
	order := r.qb.BuildOrderClause(filter.Kind, sort, "ci")
	query := fmt.Sprintf("SELECT %s %s %s %s LIMIT $%d OFFSET $%d",
		contentColumns, contentFrom, where, order, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	items := []*models.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list visible %s: %w", filter.Kind, err)
	}
	return items, nil
}

// GetVisibleBySlug returns the visible item with the slug, or nil when it is absent, unpublished or scheduled
func (r *catalogRepo) GetVisibleBySlug(ctx context.Context, kind models.Kind, slug string, now time.Time) (*models.ContentItem, error) {
	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: kind, Now: now}, "ci")
	query := fmt.Sprintf("SELECT %s %s %s AND ci.slug = $%d", contentColumns, contentFrom, where, len(args)+1)
	args = append(args, slug)

	var item models.ContentItem
	err := r.db.GetContext(ctx, &item, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", kind, slug, err)
	}
	return &item, nil
}

// IncrementViewCount adds one view in a single atomic statement and returns the stored count
func (r *catalogRepo) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		"UPDATE content_items SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count", id)
	if err == sql.ErrNoRows {
		return 0, ErrContentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	return count, nil
}

// FindRelated returns visible items of the same kind sharing a relation key with the focal item,
// unioned with its manual links, without the focal item itself
func (r *catalogRepo) FindRelated(ctx context.Context, q RelatedQuery) ([]*models.ContentItem, error) {
	if !q.HasRelation() || q.Limit <= 0 {
		return []*models.ContentItem{}, nil
	}

	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: q.Kind, Now: q.Now}, "ci")
	args = append(args, q.ExcludeID)
	excludeIndex := len(args)

	var relations []string
	if q.CategoryID != nil {
		args = append(args, *q.CategoryID)
		relations = append(relations, fmt.Sprintf("ci.category_id = $%d", len(args)))
	}
	if q.TechnologyID != nil {
		args = append(args, *q.TechnologyID)
		relations = append(relations, fmt.Sprintf("ci.technology_id = $%d", len(args)))
	}
	if q.IncludeManual {
		relations = append(relations, fmt.Sprintf(
			"ci.id IN (SELECT cr.related_id FROM content_related cr WHERE cr.content_id = $%d)", excludeIndex))
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf("SELECT %s %s %s AND ci.id <> $%d AND (%s) %s LIMIT $%d",
		contentColumns, contentFrom, where, excludeIndex,
		strings.Join(relations, " OR "),
		r.qb.BuildOrderClause(q.Kind, models.SortDefault, "ci"),
		len(args))

	items := []*models.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("find related %s: %w", q.Kind, err)
	}
	return items, nil
}

// ListFeatured returns visible featured items in the kind's default order
func (r *catalogRepo) ListFeatured(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ContentItem, error) {
	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: kind, Now: now}, "ci")
	query := fmt.Sprintf("SELECT %s %s %s AND ci.is_featured = TRUE %s LIMIT $%d",
		contentColumns, contentFrom, where, r.qb.BuildOrderClause(kind, models.SortDefault, "ci"), len(args)+1)
	args = append(args, limit)

	items := []*models.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list featured %s: %w", kind, err)
	}
	return items, nil
}

// CategoryCounts returns categories with their number of visible items of the kind
func (r *catalogRepo) CategoryCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error) {
	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: kind, Now: now}, "ci")
	query := `SELECT c.name, c.slug, COUNT(ci.id) AS item_count
		FROM categories c
		JOIN content_items ci ON ci.category_id = c.id
		` + where + `
		GROUP BY c.id, c.name, c.slug
		ORDER BY c.name ASC`

	counts := []models.TaxonomyCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("category counts %s: %w", kind, err)
	}
	return counts, nil
}

// TechnologyCounts returns technologies used as primary technology or in the tech stack of visible items
func (r *catalogRepo) TechnologyCounts(ctx context.Context, kind models.Kind, now time.Time) ([]models.TaxonomyCount, error) {
	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: kind, Now: now}, "ci")
	query := `SELECT t.name, t.slug, COUNT(DISTINCT ci.id) AS item_count
		FROM technologies t
		JOIN content_items ci ON ci.technology_id = t.id
			OR EXISTS (SELECT 1 FROM content_technologies ct WHERE ct.content_id = ci.id AND ct.technology_id = t.id)
		` + where + `
		GROUP BY t.id, t.name, t.slug
		ORDER BY item_count DESC, t.name ASC`

	counts := []models.TaxonomyCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("technology counts %s: %w", kind, err)
	}
	return counts, nil
}

// PopularTags returns the most used tags among visible items of the kind
func (r *catalogRepo) PopularTags(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]models.TaxonomyCount, error) {
	where, args := r.qb.BuildWhereClause(CatalogFilter{Kind: kind, Now: now}, "ci")
	query := fmt.Sprintf(`SELECT tg.name, tg.slug, COUNT(ci.id) AS item_count
		FROM tags tg
		JOIN content_tags ctg ON ctg.tag_id = tg.id
		JOIN content_items ci ON ci.id = ctg.content_id
		%s
		GROUP BY tg.id, tg.name, tg.slug
		ORDER BY item_count DESC, tg.name ASC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, limit)

	counts := []models.TaxonomyCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("popular tags %s: %w", kind, err)
	}
	return counts, nil
}

// TagsFor returns the tags of one item
func (r *catalogRepo) TagsFor(ctx context.Context, contentID string) ([]models.Tag, error) {
	query := `SELECT tg.id, tg.name, tg.slug, tg.created_at
		FROM tags tg
		JOIN content_tags ctg ON ctg.tag_id = tg.id
		WHERE ctg.content_id = $1
		ORDER BY tg.name ASC`

	tags := []models.Tag{}
	if err := r.db.SelectContext(ctx, &tags, query, contentID); err != nil {
		return nil, fmt.Errorf("tags for %s: %w", contentID, err)
	}
	return tags, nil
}

// TechnologiesFor returns the tech stack of one item
func (r *catalogRepo) TechnologiesFor(ctx context.Context, contentID string) ([]models.Technology, error) {
	query := `SELECT t.id, t.name, t.slug, t.tech_group, t.created_at
		FROM technologies t
		JOIN content_technologies ct ON ct.technology_id = t.id
		WHERE ct.content_id = $1
		ORDER BY t.tech_group ASC, t.name ASC`

	techs := []models.Technology{}
	if err := r.db.SelectContext(ctx, &techs, query, contentID); err != nil {
		return nil, fmt.Errorf("technologies for %s: %w", contentID, err)
	}
	return techs, nil
}

// CountVisibleByKind returns the number of visible items per kind
func (r *catalogRepo) CountVisibleByKind(ctx context.Context, now time.Time) (map[models.Kind]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, COUNT(*)
		FROM content_items
		WHERE is_published = TRUE AND published_at IS NOT NULL AND published_at <= $1
		GROUP BY kind`, now)
	if err != nil {
		return nil, fmt.Errorf("count visible by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Kind]int, len(models.Kinds))
	for _, k := range models.Kinds {
		counts[k] = 0
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[models.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Upsert inserts or updates an item keyed by (kind, slug). view_count is never written here.
func (r *catalogRepo) Upsert(ctx context.Context, item *models.ContentItem) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	query := `
		INSERT INTO content_items (kind, slug, title, summary, body, is_published, published_at, is_featured,
			order_priority, helpful_count, reading_time_minutes, difficulty, category_id, technology_id,
			attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (kind, slug) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			body = EXCLUDED.body,
			is_published = EXCLUDED.is_published,
			published_at = EXCLUDED.published_at,
			is_featured = EXCLUDED.is_featured,
			order_priority = EXCLUDED.order_priority,
			helpful_count = EXCLUDED.helpful_count,
			reading_time_minutes = EXCLUDED.reading_time_minutes,
			difficulty = EXCLUDED.difficulty,
			category_id = EXCLUDED.category_id,
			technology_id = EXCLUDED.technology_id,
			attributes = EXCLUDED.attributes,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := r.db.GetContext(ctx, &item.ID, query,
		string(item.Kind), item.Slug, item.Title, item.Summary, item.Body, item.IsPublished, item.PublishedAt,
		item.IsFeatured, item.OrderPriority, item.HelpfulCount, item.ReadingTime, item.Difficulty,
		item.CategoryID, item.TechnologyID, item.Attributes, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert %s %q: %w", item.Kind, item.Slug, err)
	}
	return nil
}

// ReplaceLinks replaces the tag and tech-stack links of an item using PostgreSQL COPY
func (r *catalogRepo) ReplaceLinks(ctx context.Context, contentID string, tagIDs, technologyIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM content_tags WHERE content_id = $1", contentID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM content_technologies WHERE content_id = $1", contentID); err != nil {
		return fmt.Errorf("clear technologies: %w", err)
	}

	if err := copyLinks(ctx, tx, "content_tags", "content_id", "tag_id", contentID, tagIDs); err != nil {
		return err
	}
	if err := copyLinks(ctx, tx, "content_technologies", "content_id", "technology_id", contentID, technologyIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func copyLinks(ctx context.Context, tx *sql.Tx, table, ownerColumn, column, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, ownerColumn, column))
	if err != nil {
		return fmt.Errorf("prepare copy %s: %w", table, err)
	}
	defer stmt.Close()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := stmt.ExecContext(ctx, ownerID, id); err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy %s: %w", table, err)
	}
	return nil
}

// ReplaceRelated replaces the manual related links of an item
func (r *catalogRepo) ReplaceRelated(ctx context.Context, contentID string, relatedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM content_related WHERE content_id = $1", contentID); err != nil {
		return fmt.Errorf("clear related: %w", err)
	}
	if len(relatedIDs) > 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_related (content_id, related_id)
			SELECT $1::uuid, rid FROM unnest($2::uuid[]) AS rid
			WHERE rid <> $1::uuid
			ON CONFLICT DO NOTHING`,
			contentID, pq.Array(relatedIDs))
		if err != nil {
			return fmt.Errorf("insert related: %w", err)
		}
	}

	return tx.Commit()
}

// IDBySlug returns the id of an item regardless of visibility, or "" when absent
func (r *catalogRepo) IDBySlug(ctx context.Context, kind models.Kind, slug string) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, "SELECT id FROM content_items WHERE kind = $1 AND slug = $2", string(kind), slug)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

const snippetColumns = `s.id, s.slug, s.title, s.description, s.code, s.language, s.created_at, s.updated_at`

// CodeSnippetsFor returns the newest snippets whose language mentions the technology.
// When none match, snippets tagged with a tag named like the technology are used instead.
func (r *catalogRepo) CodeSnippetsFor(ctx context.Context, technologyName string, limit int) ([]models.CodeSnippet, error) {
	name := strings.TrimSpace(technologyName)
	if name == "" || limit <= 0 {
		return []models.CodeSnippet{}, nil
	}
	pattern := "%" + EscapeILIKE(strings.ToLower(name)) + "%"

	snippets := []models.CodeSnippet{}
	query := `SELECT ` + snippetColumns + `
		FROM code_snippets s
		WHERE s.language ILIKE $1
		ORDER BY s.created_at DESC, s.id ASC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &snippets, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("snippets by language %q: %w", name, err)
	}
	if len(snippets) > 0 {
		return snippets, nil
	}

	query = `SELECT ` + snippetColumns + `
		FROM code_snippets s
		WHERE EXISTS (
			SELECT 1 FROM code_snippet_tags st
			JOIN tags tg ON tg.id = st.tag_id
			WHERE st.snippet_id = s.id AND tg.name ILIKE $1
		)
		ORDER BY s.created_at DESC, s.id ASC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &snippets, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("snippets by tag %q: %w", name, err)
	}
	return snippets, nil
}

// UpsertSnippet inserts or updates a snippet keyed by slug and replaces its tag links
func (r *catalogRepo) UpsertSnippet(ctx context.Context, snippet *models.CodeSnippet, tagIDs []string) error {
	now := time.Now()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = now
	}
	snippet.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO code_snippets (slug, title, description, code, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			code = EXCLUDED.code,
			language = EXCLUDED.language,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		snippet.Slug, snippet.Title, snippet.Description, snippet.Code, snippet.Language,
		snippet.CreatedAt, snippet.UpdatedAt,
	).Scan(&snippet.ID)
	if err != nil {
		return fmt.Errorf("upsert snippet %q: %w", snippet.Slug, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM code_snippet_tags WHERE snippet_id = $1", snippet.ID); err != nil {
		return fmt.Errorf("clear snippet tags: %w", err)
	}
	if err := copyLinks(ctx, tx, "code_snippet_tags", "snippet_id", "tag_id", snippet.ID, tagIDs); err != nil {
		return err
	}

	return tx.Commit()
}
