package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the publishable content types sharing the catalog
type Kind string

const (
	KindArticle  Kind = "article"
	KindProject  Kind = "project"
	KindSolution Kind = "solution"
	KindService  Kind = "service"
)

// Kinds lists every catalog kind in display order
var Kinds = []Kind{KindArticle, KindProject, KindSolution, KindService}

// ValidKinds defines allowed content kinds
var ValidKinds = map[Kind]bool{
	KindArticle:  true,
	KindProject:  true,
	KindSolution: true,
	KindService:  true,
}

// ValidDifficulties defines allowed solution difficulty levels
var ValidDifficulties = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// ContentItem is a publishable entry of any kind
type ContentItem struct {
	ID            string     `json:"id" db:"id"`
	Kind          Kind       `json:"kind" db:"kind"`
	Slug          string     `json:"slug" db:"slug"`
	Title         string     `json:"title" db:"title"`
	Summary       string     `json:"summary" db:"summary"`
	Body          string     `json:"body,omitempty" db:"body"`
	IsPublished   bool       `json:"-" db:"is_published"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured"`
	OrderPriority int        `json:"order_priority" db:"order_priority"`
	HelpfulCount  int        `json:"helpful_count" db:"helpful_count"`
	ViewCount     int64      `json:"view_count" db:"view_count"`
	ReadingTime   int        `json:"reading_time_minutes,omitempty" db:"reading_time_minutes"`
	Difficulty    string     `json:"difficulty,omitempty" db:"difficulty"`
	CategoryID    *string    `json:"-" db:"category_id"`
	TechnologyID  *string    `json:"-" db:"technology_id"`
	Attributes    Attributes `json:"attributes,omitempty" db:"attributes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	// Joined display fields
	CategorySlug   *string `json:"category_slug,omitempty" db:"category_slug"`
	CategoryName   *string `json:"category_name,omitempty" db:"category_name"`
	TechnologySlug *string `json:"technology_slug,omitempty" db:"technology_slug"`
	TechnologyName *string `json:"technology_name,omitempty" db:"technology_name"`
}

// IsVisible reports whether the item may be shown to the public at now
func (c *ContentItem) IsVisible(now time.Time) bool {
	return c.IsPublished && c.PublishedAt != nil && !c.PublishedAt.After(now)
}

// Attributes holds kind-specific display data stored as JSONB
type Attributes map[string]string

// Value implements driver.Valuer
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Attributes) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported type %T", src)
	}
	if len(data) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(data, a)
}

// SortOrder names a listing order
type SortOrder string

const (
	SortDefault      SortOrder = "default"
	SortNewest       SortOrder = "newest"
	SortMostViewed   SortOrder = "most-viewed"
	SortMostHelpful  SortOrder = "most-helpful"
	SortAlphabetical SortOrder = "alphabetical"
)

// ParseSortOrder maps a raw value onto a known order; unknown values yield SortDefault and false
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(raw) {
	case SortNewest, SortMostViewed, SortMostHelpful, SortAlphabetical, SortDefault:
		return SortOrder(raw), true
	case "":
		return SortDefault, true
	}
	return SortDefault, false
}
