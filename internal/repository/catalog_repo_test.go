package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/rs/zerolog"
)

var contentRowColumns = []string{
	"id", "kind", "slug", "title", "summary", "body", "is_published", "published_at",
	"is_featured", "order_priority", "helpful_count", "view_count", "reading_time_minutes", "difficulty",
	"category_id", "technology_id", "attributes", "created_at", "updated_at",
	"category_slug", "category_name", "technology_slug", "technology_name",
}

func newMockRepo(t *testing.T) (repository.CatalogStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewCatalogRepo(database.Wrap(db, zerolog.Nop())), mock
}

func contentRows(items ...*models.ContentItem) *sqlmock.Rows {
	rows := sqlmock.NewRows(contentRowColumns)
	for _, it := range items {
		attrs, _ := it.Attributes.Value()
		var published driver.Value
		if it.PublishedAt != nil {
			published = *it.PublishedAt
		}
		rows.AddRow(
			it.ID, string(it.Kind), it.Slug, it.Title, it.Summary, it.Body, it.IsPublished, published,
			it.IsFeatured, it.OrderPriority, it.HelpfulCount, it.ViewCount, it.ReadingTime, it.Difficulty,
			nullable(it.CategoryID), nullable(it.TechnologyID), attrs, it.CreatedAt, it.UpdatedAt,
			nullable(it.CategorySlug), nullable(it.CategoryName), nullable(it.TechnologySlug), nullable(it.TechnologyName),
		)
	}
	return rows
}

func nullable(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}

func sampleArticle() *models.ContentItem {
	published := fixedNow.Add(-48 * time.Hour)
	return &models.ContentItem{
		ID:           "11111111-1111-1111-1111-111111111111",
		Kind:         models.KindArticle,
		Slug:         "zero-downtime-deploys",
		Title:        "Zero downtime deploys",
		Summary:      "Blue/green without tears",
		Body:         "Body",
		IsPublished:  true,
		PublishedAt:  &published,
		ViewCount:    41,
		ReadingTime:  6,
		CategoryID:   strPtr("cat-devops"),
		Attributes:   models.Attributes{"hero": "deploys.png"},
		CreatedAt:    published,
		UpdatedAt:    published,
		CategorySlug: strPtr("devops"),
		CategoryName: strPtr("DevOps"),
	}
}

func TestCatalogRepo_GetVisibleBySlug(t *testing.T) {
	repo, mock := newMockRepo(t)
	want := sampleArticle()

	mock.ExpectQuery(regexp.QuoteMeta("AND ci.slug = $3")).
		WithArgs("article", fixedNow, want.Slug).
		WillReturnRows(contentRows(want))

	got, err := repo.GetVisibleBySlug(context.Background(), models.KindArticle, want.Slug, fixedNow)
	if err != nil {
		t.Fatalf("GetVisibleBySlug err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_GetVisibleBySlug_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("ci.published_at <= $2")).
		WithArgs("solution", fixedNow, "missing").
		WillReturnRows(sqlmock.NewRows(contentRowColumns))

	got, err := repo.GetVisibleBySlug(context.Background(), models.KindSolution, "missing", fixedNow)
	if err != nil {
		t.Fatalf("GetVisibleBySlug err=%v", err)
	}
	if got != nil {
		t.Errorf("expected nil item, got %+v", got)
	}
}

func TestCatalogRepo_IncrementViewCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE content_items SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count")).
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}).AddRow(int64(42)))

	got, err := repo.IncrementViewCount(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("IncrementViewCount err=%v", err)
	}
	if got != 42 {
		t.Errorf("view count = %d, want 42", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_IncrementViewCount_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}))

	_, err := repo.IncrementViewCount(context.Background(), "gone")
	if !errors.Is(err, repository.ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
}

func TestCatalogRepo_IncrementViewCount_DatabaseError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("item-1").
		WillReturnError(errors.New("deadlock detected"))

	if _, err := repo.IncrementViewCount(context.Background(), "item-1"); err == nil {
		t.Error("expected error")
	}
}

func TestCatalogRepo_ListVisible(t *testing.T) {
	repo, mock := newMockRepo(t)
	item := sampleArticle()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY ci.view_count DESC, ci.published_at DESC, ci.id ASC LIMIT $4 OFFSET $5")).
		WithArgs("article", fixedNow, "%deploy%", 12, 24).
		WillReturnRows(contentRows(item))

	got, err := repo.ListVisible(context.Background(), repository.CatalogFilter{
		Kind:   models.KindArticle,
		Now:    fixedNow,
		Search: "deploy",
	}, models.SortMostViewed, 12, 24)
	if err != nil {
		t.Fatalf("ListVisible err=%v", err)
	}
	if len(got) != 1 || got[0].Slug != item.Slug {
		t.Errorf("unexpected items: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_CountVisible(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM content_items ci WHERE ci.kind = $1")).
		WithArgs("project", fixedNow, "cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	got, err := repo.CountVisible(context.Background(), repository.CatalogFilter{
		Kind:       models.KindProject,
		Now:        fixedNow,
		CategoryID: strPtr("cat-1"),
	})
	if err != nil {
		t.Fatalf("CountVisible err=%v", err)
	}
	if got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

func TestCatalogRepo_FindRelated_NoRelationSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.FindRelated(context.Background(), repository.RelatedQuery{
		Kind:      models.KindArticle,
		Now:       fixedNow,
		ExcludeID: "focal",
		Limit:     4,
	})
	if err != nil {
		t.Fatalf("FindRelated err=%v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no related items, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_FindRelated_TechnologyAndManual(t *testing.T) {
	repo, mock := newMockRepo(t)
	related := sampleArticle()
	related.Kind = models.KindSolution

	mock.ExpectQuery(regexp.QuoteMeta(
		"AND ci.id <> $3 AND (ci.technology_id = $4 OR ci.id IN (SELECT cr.related_id FROM content_related cr WHERE cr.content_id = $3)) " +
			"ORDER BY ci.helpful_count DESC, ci.created_at DESC, ci.id ASC LIMIT $5")).
		WithArgs("solution", fixedNow, "focal", "tech-docker", 6).
		WillReturnRows(contentRows(related))

	got, err := repo.FindRelated(context.Background(), repository.RelatedQuery{
		Kind:          models.KindSolution,
		Now:           fixedNow,
		ExcludeID:     "focal",
		TechnologyID:  strPtr("tech-docker"),
		IncludeManual: true,
		Limit:         6,
	})
	if err != nil {
		t.Fatalf("FindRelated err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 related item, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_PopularTags(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3")).
		WithArgs("article", fixedNow, 20).
		WillReturnRows(sqlmock.NewRows([]string{"name", "slug", "item_count"}).
			AddRow("Go", "go", 9).
			AddRow("Postgres", "postgres", 4))

	got, err := repo.PopularTags(context.Background(), models.KindArticle, fixedNow, 20)
	if err != nil {
		t.Fatalf("PopularTags err=%v", err)
	}
	want := []models.TaxonomyCount{{Name: "Go", Slug: "go", Count: 9}, {Name: "Postgres", Slug: "postgres", Count: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogRepo_CountVisibleByKind(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("GROUP BY kind").
		WithArgs(fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "count"}).
			AddRow("article", 10).
			AddRow("solution", 3))

	got, err := repo.CountVisibleByKind(context.Background(), fixedNow)
	if err != nil {
		t.Fatalf("CountVisibleByKind err=%v", err)
	}
	want := map[models.Kind]int{
		models.KindArticle:  10,
		models.KindProject:  0,
		models.KindSolution: 3,
		models.KindService:  0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogRepo_ReplaceRelated(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM content_related WHERE content_id = $1")).
		WithArgs("focal").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO content_related").
		WithArgs("focal", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.ReplaceRelated(context.Background(), "focal", []string{"a", "b"}); err != nil {
		t.Fatalf("ReplaceRelated err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

var snippetColumns = []string{"id", "slug", "title", "description", "code", "language", "created_at", "updated_at"}

func TestCatalogRepo_CodeSnippetsFor_ByLanguage(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := fixedNow.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.language ILIKE $1")).
		WithArgs("%postgresql%", 3).
		WillReturnRows(sqlmock.NewRows(snippetColumns).
			AddRow("snip-1", "explain-analyze", "Explain analyze", "", "EXPLAIN ANALYZE ...", "PostgreSQL", created, created))

	got, err := repo.CodeSnippetsFor(context.Background(), " PostgreSQL ", 3)
	if err != nil {
		t.Fatalf("CodeSnippetsFor err=%v", err)
	}
	want := []models.CodeSnippet{{
		ID: "snip-1", Slug: "explain-analyze", Title: "Explain analyze", Code: "EXPLAIN ANALYZE ...",
		Language: "PostgreSQL", CreatedAt: created, UpdatedAt: created,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_CodeSnippetsFor_FallsBackToTags(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.language ILIKE $1")).
		WithArgs("%node\\_js%", 3).
		WillReturnRows(sqlmock.NewRows(snippetColumns))
	mock.ExpectQuery(regexp.QuoteMeta("tg.name ILIKE $1")).
		WithArgs("%node\\_js%", 3).
		WillReturnRows(sqlmock.NewRows(snippetColumns).
			AddRow("snip-2", "graceful-shutdown", "Graceful shutdown", "", "process.on(...)", "javascript", fixedNow, fixedNow))

	got, err := repo.CodeSnippetsFor(context.Background(), "Node_JS", 3)
	if err != nil {
		t.Fatalf("CodeSnippetsFor err=%v", err)
	}
	if len(got) != 1 || got[0].Slug != "graceful-shutdown" {
		t.Fatalf("Expected the tagged snippet, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_CodeSnippetsFor_BlankNameSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.CodeSnippetsFor(context.Background(), "  ", 3)
	if err != nil || len(got) != 0 {
		t.Fatalf("Expected no snippets, got %v err=%v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogRepo_CodeSnippetsFor_DatabaseError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM code_snippets").WillReturnError(errors.New("connection refused"))

	if _, err := repo.CodeSnippetsFor(context.Background(), "Go", 3); err == nil {
		t.Fatal("Expected an error")
	}
}

func TestCatalogRepo_UpsertSnippet(t *testing.T) {
	repo, mock := newMockRepo(t)
	snippet := &models.CodeSnippet{Slug: "explain-analyze", Title: "Explain analyze", Code: "EXPLAIN", Language: "sql", CreatedAt: fixedNow}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO code_snippets").
		WithArgs("explain-analyze", "Explain analyze", "", "EXPLAIN", "sql", fixedNow, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("snip-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM code_snippet_tags WHERE snippet_id = $1")).
		WithArgs("snip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("COPY")
	prep.ExpectExec().WithArgs("snip-1", "tag-perf").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// The duplicate tag id is copied once
	if err := repo.UpsertSnippet(context.Background(), snippet, []string{"tag-perf", "tag-perf"}); err != nil {
		t.Fatalf("UpsertSnippet err=%v", err)
	}
	if snippet.ID != "snip-1" {
		t.Errorf("Expected ID snip-1, got %q", snippet.ID)
	}
	if !snippet.CreatedAt.Equal(fixedNow) {
		t.Errorf("Expected created_at to be kept, got %v", snippet.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
