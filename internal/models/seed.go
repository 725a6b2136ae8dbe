package models

// SeedFixture is the YAML document loaded by the seed command
type SeedFixture struct {
	Categories   []CategoryRecord   `yaml:"categories"`
	Tags         []TagRecord        `yaml:"tags"`
	Technologies []TechnologyRecord `yaml:"technologies"`
	Content      []ContentRecord    `yaml:"content"`
	Snippets     []SnippetRecord    `yaml:"snippets"`
}

// CategoryRecord is a category entry of a seed fixture
type CategoryRecord struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Parent      string `yaml:"parent"`
}

// TagRecord is a tag entry of a seed fixture
type TagRecord struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// TechnologyRecord is a technology entry of a seed fixture
type TechnologyRecord struct {
	Name  string `yaml:"name"`
	Slug  string `yaml:"slug"`
	Group string `yaml:"group"`
}

// ContentRecord is a content entry of a seed fixture; taxonomy is referenced by slug
type ContentRecord struct {
	Kind          string            `yaml:"kind"`
	Slug          string            `yaml:"slug"`
	Title         string            `yaml:"title"`
	Summary       string            `yaml:"summary"`
	Body          string            `yaml:"body"`
	Status        string            `yaml:"status"` // draft or published
	PublishedAt   string            `yaml:"published_at"`
	Featured      bool              `yaml:"featured"`
	OrderPriority int               `yaml:"order_priority"`
	HelpfulCount  int               `yaml:"helpful_count"`
	ReadingTime   int               `yaml:"reading_time_minutes"`
	Difficulty    string            `yaml:"difficulty"`
	Category      string            `yaml:"category"`
	Technology    string            `yaml:"technology"`
	Tags          []string          `yaml:"tags"`
	TechStack     []string          `yaml:"tech_stack"`
	Related       []string          `yaml:"related"`
	Attributes    map[string]string `yaml:"attributes"`
}

// SnippetRecord is a code snippet entry of a seed fixture; tags are referenced by slug
type SnippetRecord struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Code        string   `yaml:"code"`
	Language    string   `yaml:"language"`
	Tags        []string `yaml:"tags"`
	CreatedAt   string   `yaml:"created_at"`
}

// ValidStatuses defines allowed content statuses in fixtures
var ValidStatuses = map[string]bool{
	"draft":     true,
	"published": true,
}

// SeedReport summarises a seed run
type SeedReport struct {
	Categories   int                   `json:"categories"`
	Tags         int                   `json:"tags"`
	Technologies int                   `json:"technologies"`
	Content      int                   `json:"content"`
	Snippets     int                   `json:"snippets"`
	Skipped      int                   `json:"skipped"`
	Errors       []SeedValidationError `json:"errors,omitempty"`
	DurationMs   int64                 `json:"duration_ms"`
}

// SeedValidationError ties a validation failure to a fixture entry
type SeedValidationError struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}
