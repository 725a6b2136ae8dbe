package repository

import (
	"fmt"
	"strings"

	"github.com/pulcova-api/internal/models"
)

// CatalogQueryBuilder builds WHERE and ORDER BY clauses for catalog queries.
// The WHERE clause is shared between COUNT and SELECT queries and always
// carries the visibility predicate, so no caller can list an unpublished or
// future-dated item.
type CatalogQueryBuilder struct{}

// NewCatalogQueryBuilder creates a new query builder instance
func NewCatalogQueryBuilder() *CatalogQueryBuilder {
	return &CatalogQueryBuilder{}
}

// BuildWhereClause builds the WHERE clause and its arguments.
// $1 is always the kind and $2 the visibility cut-off; optional filters follow
// in the order search, category, technology, tag, from, to.
func (qb *CatalogQueryBuilder) BuildWhereClause(f CatalogFilter, tableAlias string) (clause string, args []interface{}) {
	col := columnRef(tableAlias)

	conditions := []string{
		fmt.Sprintf("%s = $1", col("kind")),
		fmt.Sprintf("%s = TRUE", col("is_published")),
		fmt.Sprintf("%s IS NOT NULL", col("published_at")),
		fmt.Sprintf("%s <= $2", col("published_at")),
	}
	args = []interface{}{string(f.Kind), f.Now}
	paramIndex := 3

	if search := strings.TrimSpace(f.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE $%d OR %s ILIKE $%d OR %s ILIKE $%d)",
			col("title"), paramIndex, col("summary"), paramIndex, col("body"), paramIndex))
		args = append(args, "%"+EscapeILIKE(search)+"%")
		paramIndex++
	}

	if f.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", col("category_id"), paramIndex))
		args = append(args, *f.CategoryID)
		paramIndex++
	}

	// A technology matches either the primary technology or the tech stack
	if f.TechnologyID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"(%s = $%d OR EXISTS (SELECT 1 FROM content_technologies ct WHERE ct.content_id = %s AND ct.technology_id = $%d))",
			col("technology_id"), paramIndex, col("id"), paramIndex))
		args = append(args, *f.TechnologyID)
		paramIndex++
	}

	if f.TagID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM content_tags ctg WHERE ctg.content_id = %s AND ctg.tag_id = $%d)",
			col("id"), paramIndex))
		args = append(args, *f.TagID)
		paramIndex++
	}

	if f.From != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", col("published_at"), paramIndex))
		args = append(args, *f.From)
		paramIndex++
	}
	if f.To != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", col("published_at"), paramIndex))
		args = append(args, *f.To)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// BuildOrderClause builds a deterministic ORDER BY clause; id is the final tie-breaker
func (qb *CatalogQueryBuilder) BuildOrderClause(kind models.Kind, sort models.SortOrder, tableAlias string) string {
	col := columnRef(tableAlias)

	var keys []string
	switch sort {
	case models.SortNewest:
		keys = []string{col("published_at") + " DESC", col("created_at") + " DESC"}
	case models.SortMostViewed:
		keys = []string{col("view_count") + " DESC", col("published_at") + " DESC"}
	case models.SortMostHelpful:
		keys = []string{col("helpful_count") + " DESC", col("created_at") + " DESC"}
	case models.SortAlphabetical:
		keys = []string{col("title") + " ASC"}
	default:
		keys = defaultOrder(kind, col)
	}

	keys = append(keys, col("id")+" ASC")
	return "ORDER BY " + strings.Join(keys, ", ")
}

// defaultOrder is the per-kind relevance order
func defaultOrder(kind models.Kind, col func(string) string) []string {
	switch kind {
	case models.KindProject, models.KindService:
		return []string{col("order_priority") + " DESC", col("created_at") + " DESC"}
	case models.KindSolution:
		return []string{col("helpful_count") + " DESC", col("created_at") + " DESC"}
	default:
		return []string{col("published_at") + " DESC", col("created_at") + " DESC"}
	}
}

func columnRef(tableAlias string) func(string) string {
	return func(name string) string {
		if tableAlias == "" {
			return name
		}
		return tableAlias + "." + name
	}
}

// EscapeILIKE escapes the ILIKE wildcards so user input matches literally
func EscapeILIKE(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
