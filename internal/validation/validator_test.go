package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pulcova-api/internal/models"
)

func validContact() models.ContactRequest {
	return models.ContactRequest{
		FirstName: "ada",
		LastName:  "o'brien-smith",
		Email:     "  Ada@Example.com ",
		Company:   "Analytical Engines",
		Message:   "We would like to discuss a data platform rebuild.",
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(r *models.ContactRequest)
		wantFields []string
	}{
		{
			name:   "valid submission",
			mutate: func(r *models.ContactRequest) {},
		},
		{
			name:       "first name too short",
			mutate:     func(r *models.ContactRequest) { r.FirstName = "A" },
			wantFields: []string{"first_name"},
		},
		{
			name:       "last name with digits",
			mutate:     func(r *models.ContactRequest) { r.LastName = "Smith2" },
			wantFields: []string{"last_name"},
		},
		{
			name:       "invalid email format",
			mutate:     func(r *models.ContactRequest) { r.Email = "not-an-email" },
			wantFields: []string{"email"},
		},
		{
			name:       "disposable email domain",
			mutate:     func(r *models.ContactRequest) { r.Email = "someone@mailinator.com" },
			wantFields: []string{"email"},
		},
		{
			name:       "company too long",
			mutate:     func(r *models.ContactRequest) { r.Company = strings.Repeat("c", MaxCompanyLength+1) },
			wantFields: []string{"company"},
		},
		{
			name:       "message too short",
			mutate:     func(r *models.ContactRequest) { r.Message = "hi there" },
			wantFields: []string{"message"},
		},
		{
			name:       "message too long",
			mutate:     func(r *models.ContactRequest) { r.Message = strings.Repeat("m", MaxMessageLength+1) },
			wantFields: []string{"message"},
		},
		{
			name:       "spam keyword",
			mutate:     func(r *models.ContactRequest) { r.Message = "Click HERE to claim your prize today" },
			wantFields: []string{"message"},
		},
		{
			name: "multiple validation errors",
			mutate: func(r *models.ContactRequest) {
				r.FirstName = ""
				r.LastName = "x"
				r.Email = ""
				r.Message = "short"
			},
			wantFields: []string{"first_name", "last_name", "email", "message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validContact()
			tt.mutate(&req)

			in, err := ValidateContact(&req)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateContact() unexpected error: %v", err)
				}
				if in == nil {
					t.Fatal("ValidateContact() returned nil input")
				}
				return
			}

			var verrs *Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("ValidateContact() error = %v, want *Errors", err)
			}
			if len(verrs.Fields) != len(tt.wantFields) {
				t.Errorf("got %d errors, want %d. Errors: %v", len(verrs.Fields), len(tt.wantFields), verrs.Fields)
			}
			for _, want := range tt.wantFields {
				found := false
				for _, f := range verrs.Fields {
					if f.Field == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected error for field '%s' but not found", want)
				}
			}
		})
	}
}

func TestValidateContact_Cleaning(t *testing.T) {
	req := validContact()
	req.Website = "http://spam.example"

	in, err := ValidateContact(&req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want %q", in.FirstName, "Ada")
	}
	if in.LastName != "O'Brien-Smith" {
		t.Errorf("LastName = %q, want %q", in.LastName, "O'Brien-Smith")
	}
	if in.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized address", in.Email)
	}
	if !in.IsSpam {
		t.Error("filled honeypot should mark the submission as spam")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"first.last+tag@sub.example.co", false},
		{"", true},
		{"user@", true},
		{"user@example", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestFromBindingError(t *testing.T) {
	v := validator.New()
	UseJSONFieldNames(v)

	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Phone string `json:"phone" validate:"max=5"`
	}

	err := v.Struct(payload{Email: "nope", Phone: "1234567"})
	errs := FromBindingError(err)

	if len(errs.Fields) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs.Fields), errs.Fields)
	}
	if errs.Fields[0].Field != "email" || errs.Fields[0].Message != "invalid email format" {
		t.Errorf("unexpected first error: %+v", errs.Fields[0])
	}
	if errs.Fields[1].Field != "phone" || errs.Fields[1].Message != "must be at most 5 characters" {
		t.Errorf("unexpected second error: %+v", errs.Fields[1])
	}

	other := FromBindingError(errors.New("unexpected EOF"))
	if len(other.Fields) != 1 || other.Fields[0].Field != "body" {
		t.Errorf("non-validation error should map to body: %+v", other.Fields)
	}
}

func TestErrors(t *testing.T) {
	var empty *Errors
	if empty.Err() != nil {
		t.Error("nil Errors should produce nil error")
	}

	errs := &Errors{}
	if errs.Err() != nil {
		t.Error("empty Errors should produce nil error")
	}
	errs.Add("email", "invalid email format", "x")
	errs.Add("message", "message is required", nil)
	want := "validation failed: email: invalid email format; message: message is required"
	if errs.Err() == nil || errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}

func newSeedValidator() *Validator {
	v := NewValidator()
	v.AddCategorySlug("engineering")
	v.AddTagSlug("go")
	v.AddTechnologySlug("postgres")
	return v
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name       string
		rec        *models.ContentRecord
		wantErrors int
		wantFields []string
	}{
		{
			name: "valid published article",
			rec: &models.ContentRecord{
				Kind:        "article",
				Slug:        "my-first-article",
				Title:       "My First Article",
				Status:      "published",
				PublishedAt: "2024-01-01T00:00:00Z",
				Category:    "engineering",
				Tags:        []string{"go"},
				TechStack:   []string{"postgres"},
			},
			wantErrors: 0,
		},
		{
			name: "valid draft solution",
			rec: &models.ContentRecord{
				Kind:       "solution",
				Slug:       "fix-slow-queries",
				Title:      "Fix slow queries",
				Status:     "draft",
				Difficulty: "advanced",
				Technology: "postgres",
			},
			wantErrors: 0,
		},
		{
			name:       "unknown kind",
			rec:        &models.ContentRecord{Kind: "podcast", Slug: "episode-1", Title: "Episode 1"},
			wantErrors: 1,
			wantFields: []string{"kind"},
		},
		{
			name:       "invalid slug - not kebab-case",
			rec:        &models.ContentRecord{Kind: "article", Slug: "My_Article", Title: "My Article"},
			wantErrors: 1,
			wantFields: []string{"slug"},
		},
		{
			name: "draft with published_at - logical error",
			rec: &models.ContentRecord{
				Kind:        "article",
				Slug:        "draft-article",
				Title:       "Draft",
				Status:      "draft",
				PublishedAt: "2024-01-01T00:00:00Z",
			},
			wantErrors: 1,
			wantFields: []string{"published_at"},
		},
		{
			name: "invalid date format",
			rec: &models.ContentRecord{
				Kind:        "project",
				Slug:        "project-one",
				Title:       "Project One",
				PublishedAt: "01/01/2024",
			},
			wantErrors: 1,
			wantFields: []string{"published_at"},
		},
		{
			name: "dangling taxonomy references",
			rec: &models.ContentRecord{
				Kind:       "solution",
				Slug:       "solution-one",
				Title:      "Solution One",
				Category:   "missing",
				Technology: "cobol",
				Tags:       []string{"go", "rust"},
				TechStack:  []string{"fortran"},
			},
			wantErrors: 4,
			wantFields: []string{"category", "technology", "tags", "tech_stack"},
		},
		{
			name: "self relation",
			rec: &models.ContentRecord{
				Kind:    "solution",
				Slug:    "solution-two",
				Title:   "Solution Two",
				Related: []string{"solution-two"},
			},
			wantErrors: 1,
			wantFields: []string{"related"},
		},
		{
			name: "multiple validation errors",
			rec: &models.ContentRecord{
				Kind:         "",
				Slug:         "",
				Title:        "",
				Status:       "archived",
				Difficulty:   "expert",
				HelpfulCount: -1,
			},
			wantErrors: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := newSeedValidator().ValidateContent(tt.rec)
			if len(errs) != tt.wantErrors {
				t.Errorf("ValidateContent() got %d errors, want %d. Errors: %v", len(errs), tt.wantErrors, errs)
			}
			for _, wantField := range tt.wantFields {
				found := false
				for _, err := range errs {
					if err.Field == wantField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected error for field '%s' but not found", wantField)
				}
			}
		})
	}
}

func TestValidateContent_DuplicateSlugPerKind(t *testing.T) {
	v := newSeedValidator()
	v.AddContentSlug("article", "shared-slug")

	errs := v.ValidateContent(&models.ContentRecord{Kind: "article", Slug: "shared-slug", Title: "Again"})
	if len(errs) != 1 || errs[0].Message != "duplicate slug" {
		t.Errorf("expected duplicate slug error, got %v", errs)
	}

	// the same slug is free in another kind
	errs = v.ValidateContent(&models.ContentRecord{Kind: "project", Slug: "shared-slug", Title: "Project"})
	if len(errs) != 0 {
		t.Errorf("slug should be unique per kind only, got %v", errs)
	}
}

func TestValidateTaxonomy(t *testing.T) {
	v := NewValidator()

	if errs := v.ValidateCategory(&models.CategoryRecord{Name: "Engineering", Slug: "engineering"}); len(errs) != 0 {
		t.Errorf("valid category got errors: %v", errs)
	}
	v.AddCategorySlug("engineering")

	if errs := v.ValidateCategory(&models.CategoryRecord{Name: "Again", Slug: "engineering"}); len(errs) != 1 {
		t.Errorf("duplicate category slug should fail, got %v", errs)
	}
	if errs := v.ValidateCategory(&models.CategoryRecord{Name: "Child", Slug: "child", Parent: "unknown"}); len(errs) != 1 || errs[0].Field != "parent" {
		t.Errorf("unknown parent should fail, got %v", errs)
	}
	if errs := v.ValidateCategory(&models.CategoryRecord{Name: "Child", Slug: "child", Parent: "engineering"}); len(errs) != 0 {
		t.Errorf("known parent should pass, got %v", errs)
	}

	if errs := v.ValidateTag(&models.TagRecord{Name: "", Slug: "Go Lang"}); len(errs) != 2 {
		t.Errorf("tag without name and with bad slug should fail twice, got %v", errs)
	}

	if errs := v.ValidateTechnology(&models.TechnologyRecord{Name: "Go", Slug: "go", Group: "backend"}); len(errs) != 0 {
		t.Errorf("valid technology got errors: %v", errs)
	}
	if errs := v.ValidateTechnology(&models.TechnologyRecord{Name: "Go", Slug: "go", Group: "quantum"}); len(errs) != 1 || errs[0].Field != "group" {
		t.Errorf("unknown group should fail, got %v", errs)
	}
}

func TestValidateSnippet(t *testing.T) {
	valid := func() models.SnippetRecord {
		return models.SnippetRecord{Slug: "explain-analyze", Title: "Explain", Code: "EXPLAIN", Language: "sql", Tags: []string{"go"}}
	}

	tests := []struct {
		name      string
		modify    func(*models.SnippetRecord)
		wantField string
	}{
		{"valid", func(r *models.SnippetRecord) {}, ""},
		{"bad slug", func(r *models.SnippetRecord) { r.Slug = "Explain_Analyze" }, "slug"},
		{"missing title", func(r *models.SnippetRecord) { r.Title = "" }, "title"},
		{"missing code", func(r *models.SnippetRecord) { r.Code = "" }, "code"},
		{"missing language", func(r *models.SnippetRecord) { r.Language = "" }, "language"},
		{"long language", func(r *models.SnippetRecord) { r.Language = strings.Repeat("x", 51) }, "language"},
		{"unknown tag", func(r *models.SnippetRecord) { r.Tags = []string{"rust"} }, "tags"},
		{"bad created_at", func(r *models.SnippetRecord) { r.CreatedAt = "2025-13-01" }, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid()
			tt.modify(&rec)
			errs := newSeedValidator().ValidateSnippet(&rec)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("Expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != tt.wantField {
				t.Errorf("Expected one %s error, got %v", tt.wantField, errs)
			}
		})
	}

	v := newSeedValidator()
	v.AddSnippetSlug("explain-analyze")
	rec := valid()
	if errs := v.ValidateSnippet(&rec); len(errs) != 1 || errs[0].Message != "duplicate slug" {
		t.Errorf("Expected duplicate slug error, got %v", errs)
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"hello-world", true},
		{"go-1-22", true},
		{"Hello", false},
		{"double--dash", false},
		{"-leading", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidSlug(tt.slug); got != tt.want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
