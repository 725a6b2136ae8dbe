package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pulcova-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
)

// Contact form limits
const (
	MinNameLength    = 2
	MaxCompanyLength = 100
	MinMessageLength = 10
	MaxMessageLength = 2000
)

var disposableDomains = map[string]bool{
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"tempmail.org":      true,
	"throwaway.email":   true,
}

var spamKeywords = []string{"click here", "buy now", "limited time", "guaranteed", "free money"}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors collects field errors of one payload
type Errors struct {
	Fields []ValidationError `json:"errors"`
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error
func (e *Errors) Add(field, message string, value interface{}) {
	e.Fields = append(e.Fields, ValidationError{Field: field, Message: message, Value: value})
}

// Err returns e as an error, or nil when nothing was collected
func (e *Errors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ContactInput is a contact form submission after cleaning
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	Company     string
	ProjectType string
	Budget      string
	Message     string
	// IsSpam is set when the honeypot field was filled in
	IsSpam bool
}

// ValidateContact checks a contact form submission and returns the cleaned values.
// The returned error is an *Errors.
func ValidateContact(req *models.ContactRequest) (*ContactInput, error) {
	errs := &Errors{}
	in := &ContactInput{
		ProjectType: strings.TrimSpace(req.ProjectType),
		Budget:      strings.TrimSpace(req.Budget),
		IsSpam:      strings.TrimSpace(req.Website) != "",
	}

	in.FirstName = cleanName("first_name", req.FirstName, errs)
	in.LastName = cleanName("last_name", req.LastName, errs)

	email := NormalizeEmail(req.Email)
	if verr := validateEmail("email", email); verr != nil {
		errs.Fields = append(errs.Fields, *verr)
	} else if disposableDomains[email[strings.LastIndex(email, "@")+1:]] {
		errs.Add("email", "please use a permanent email address", email)
	}
	in.Email = email

	in.Company = strings.TrimSpace(req.Company)
	if len(in.Company) > MaxCompanyLength {
		errs.Add("company", fmt.Sprintf("company name must be at most %d characters", MaxCompanyLength), nil)
	}

	in.Message = strings.TrimSpace(req.Message)
	switch n := len([]rune(in.Message)); {
	case n < MinMessageLength:
		errs.Add("message", fmt.Sprintf("message must be at least %d characters", MinMessageLength), nil)
	case n > MaxMessageLength:
		errs.Add("message", fmt.Sprintf("message must be at most %d characters", MaxMessageLength), nil)
	default:
		lower := strings.ToLower(in.Message)
		for _, kw := range spamKeywords {
			if strings.Contains(lower, kw) {
				errs.Add("message", "message appears to be spam", nil)
				break
			}
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// cleanName validates a person name and returns it title-cased
func cleanName(field, raw string, errs *Errors) string {
	name := strings.TrimSpace(raw)
	if len(name) < MinNameLength {
		errs.Add(field, fmt.Sprintf("must be at least %d characters", MinNameLength), nil)
		return name
	}
	if !nameRegex.MatchString(name) {
		errs.Add(field, "may only contain letters, spaces, hyphens and apostrophes", name)
		return name
	}
	return titleCase(name)
}

// titleCase upper-cases the first letter of every word, splitting on spaces, hyphens and apostrophes
func titleCase(s string) string {
	out := []rune(strings.ToLower(s))
	upper := true
	for i, r := range out {
		if upper && r >= 'a' && r <= 'z' {
			out[i] = r - ('a' - 'A')
		}
		upper = r == ' ' || r == '-' || r == '\''
	}
	return string(out)
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address format. The returned error is an *Errors.
func ValidateEmail(email string) error {
	if verr := validateEmail("email", email); verr != nil {
		return &Errors{Fields: []ValidationError{*verr}}
	}
	return nil
}

func validateEmail(field, email string) *ValidationError {
	if email == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: field, Message: "invalid email format", Value: email}
	}
	return nil
}

// UseJSONFieldNames makes validator report json tag names instead of Go field names
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// FromBindingError converts a gin binding error into field errors
func FromBindingError(err error) *Errors {
	errs := &Errors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("body", "invalid request payload", nil)
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), tagMessage(fe), nil)
	}
	return errs
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "invalid email format"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Validator checks seed fixture records. It remembers the slugs it has
// accepted so duplicates and dangling taxonomy references are reported.
type Validator struct {
	categorySlugs   map[string]bool
	tagSlugs        map[string]bool
	technologySlugs map[string]bool
	contentSlugs    map[string]bool // kind/slug
	snippetSlugs    map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		categorySlugs:   make(map[string]bool),
		tagSlugs:        make(map[string]bool),
		technologySlugs: make(map[string]bool),
		contentSlugs:    make(map[string]bool),
		snippetSlugs:    make(map[string]bool),
	}
}

// AddCategorySlug marks a category as known
func (v *Validator) AddCategorySlug(slug string) { v.categorySlugs[slug] = true }

// AddTagSlug marks a tag as known
func (v *Validator) AddTagSlug(slug string) { v.tagSlugs[slug] = true }

// AddTechnologySlug marks a technology as known
func (v *Validator) AddTechnologySlug(slug string) { v.technologySlugs[slug] = true }

// AddContentSlug marks a content slug of a kind as taken
func (v *Validator) AddContentSlug(kind, slug string) { v.contentSlugs[kind+"/"+slug] = true }

// AddSnippetSlug marks a code snippet slug as taken
func (v *Validator) AddSnippetSlug(slug string) { v.snippetSlugs[slug] = true }

// ValidateCategory validates a category record
func (v *Validator) ValidateCategory(rec *models.CategoryRecord) []ValidationError {
	var errs []ValidationError

	if rec.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	errs = appendSlugErrors(errs, rec.Slug, v.categorySlugs)
	if rec.Parent != "" && !v.categorySlugs[rec.Parent] {
		errs = append(errs, ValidationError{Field: "parent", Message: "parent category must be declared first", Value: rec.Parent})
	}
	return errs
}

// ValidateTag validates a tag record
func (v *Validator) ValidateTag(rec *models.TagRecord) []ValidationError {
	var errs []ValidationError

	if rec.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	return appendSlugErrors(errs, rec.Slug, v.tagSlugs)
}

// ValidateTechnology validates a technology record
func (v *Validator) ValidateTechnology(rec *models.TechnologyRecord) []ValidationError {
	var errs []ValidationError

	if rec.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	errs = appendSlugErrors(errs, rec.Slug, v.technologySlugs)
	if rec.Group != "" && !models.ValidTechGroups[rec.Group] {
		errs = append(errs, ValidationError{
			Field:   "group",
			Message: "invalid group, must be one of: frontend, backend, devops, database, mobile, other",
			Value:   rec.Group,
		})
	}
	return errs
}

// ValidateContent validates a content record
func (v *Validator) ValidateContent(rec *models.ContentRecord) []ValidationError {
	var errs []ValidationError

	// Validate kind
	if rec.Kind == "" {
		errs = append(errs, ValidationError{Field: "kind", Message: "kind is required"})
	} else if !models.ValidKinds[models.Kind(rec.Kind)] {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: "invalid kind, must be one of: article, project, solution, service",
			Value:   rec.Kind,
		})
	}

	// Validate slug, unique per kind
	if rec.Slug == "" {
		errs = append(errs, ValidationError{Field: "slug", Message: "slug is required"})
	} else if !slugRegex.MatchString(rec.Slug) {
		errs = append(errs, ValidationError{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: rec.Slug})
	} else if v.contentSlugs[rec.Kind+"/"+rec.Slug] {
		errs = append(errs, ValidationError{Field: "slug", Message: "duplicate slug", Value: rec.Slug})
	}

	if rec.Title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}

	// Validate status
	if rec.Status != "" && !models.ValidStatuses[rec.Status] {
		errs = append(errs, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published",
			Value:   rec.Status,
		})
	}

	// Validate draft must not have published_at
	if rec.Status == "draft" && rec.PublishedAt != "" {
		errs = append(errs, ValidationError{Field: "published_at", Message: "draft content must not have published_at"})
	} else if rec.PublishedAt != "" {
		if _, err := time.Parse(time.RFC3339, rec.PublishedAt); err != nil {
			errs = append(errs, ValidationError{Field: "published_at", Message: "invalid ISO 8601 date format", Value: rec.PublishedAt})
		}
	}

	if rec.Difficulty != "" && !models.ValidDifficulties[rec.Difficulty] {
		errs = append(errs, ValidationError{
			Field:   "difficulty",
			Message: "invalid difficulty, must be one of: beginner, intermediate, advanced",
			Value:   rec.Difficulty,
		})
	}
	if rec.HelpfulCount < 0 {
		errs = append(errs, ValidationError{Field: "helpful_count", Message: "helpful_count must not be negative", Value: rec.HelpfulCount})
	}

	// Validate taxonomy references
	if rec.Category != "" && !v.categorySlugs[rec.Category] {
		errs = append(errs, ValidationError{Field: "category", Message: "referenced category does not exist", Value: rec.Category})
	}
	if rec.Technology != "" && !v.technologySlugs[rec.Technology] {
		errs = append(errs, ValidationError{Field: "technology", Message: "referenced technology does not exist", Value: rec.Technology})
	}
	for _, tag := range rec.Tags {
		if !v.tagSlugs[tag] {
			errs = append(errs, ValidationError{Field: "tags", Message: "referenced tag does not exist", Value: tag})
		}
	}
	for _, tech := range rec.TechStack {
		if !v.technologySlugs[tech] {
			errs = append(errs, ValidationError{Field: "tech_stack", Message: "referenced technology does not exist", Value: tech})
		}
	}
	for _, rel := range rec.Related {
		if rel == rec.Slug {
			errs = append(errs, ValidationError{Field: "related", Message: "content cannot be related to itself", Value: rel})
		} else if !slugRegex.MatchString(rel) {
			errs = append(errs, ValidationError{Field: "related", Message: "related slug must be kebab-case", Value: rel})
		}
	}

	return errs
}

// ValidateSnippet validates a code snippet record
func (v *Validator) ValidateSnippet(rec *models.SnippetRecord) []ValidationError {
	var errs []ValidationError

	errs = appendSlugErrors(errs, rec.Slug, v.snippetSlugs)
	if rec.Title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if rec.Code == "" {
		errs = append(errs, ValidationError{Field: "code", Message: "code is required"})
	}
	if rec.Language == "" {
		errs = append(errs, ValidationError{Field: "language", Message: "language is required"})
	} else if len(rec.Language) > 50 {
		errs = append(errs, ValidationError{Field: "language", Message: "language must be at most 50 characters", Value: rec.Language})
	}
	if rec.CreatedAt != "" {
		if _, err := time.Parse(time.RFC3339, rec.CreatedAt); err != nil {
			errs = append(errs, ValidationError{Field: "created_at", Message: "invalid ISO 8601 date format", Value: rec.CreatedAt})
		}
	}
	for _, tag := range rec.Tags {
		if !v.tagSlugs[tag] {
			errs = append(errs, ValidationError{Field: "tags", Message: "referenced tag does not exist", Value: tag})
		}
	}
	return errs
}

func appendSlugErrors(errs []ValidationError, slug string, seen map[string]bool) []ValidationError {
	switch {
	case slug == "":
		return append(errs, ValidationError{Field: "slug", Message: "slug is required"})
	case !slugRegex.MatchString(slug):
		return append(errs, ValidationError{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: slug})
	case seen[slug]:
		return append(errs, ValidationError{Field: "slug", Message: "duplicate slug", Value: slug})
	}
	return errs
}

// IsValidSlug reports whether s is a kebab-case slug
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}
