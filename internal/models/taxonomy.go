package models

import "time"

// Category groups articles, projects and services
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	ParentID    *string   `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}

// Tag is a free-form label
type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Technology is a tech-stack entry
type Technology struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Group     string    `json:"group" db:"tech_group"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// ValidTechGroups defines allowed technology groups
var ValidTechGroups = map[string]bool{
	"frontend": true,
	"backend":  true,
	"devops":   true,
	"database": true,
	"mobile":   true,
	"other":    true,
}

// TaxonomyCount is a taxonomy entry with the number of visible items using it
type TaxonomyCount struct {
	Name  string `json:"name" db:"name"`
	Slug  string `json:"slug" db:"slug"`
	Count int    `json:"count" db:"item_count"`
}
