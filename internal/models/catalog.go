package models

// ListParams are the raw, unvalidated listing query parameters
type ListParams struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Tech     string `form:"tech"`
	Tag      string `form:"tag"`
	Sort     string `form:"sort"`
	Page     string `form:"page"`
	From     string `form:"from"`
	To       string `form:"to"`
}

// PageInfo describes the clamped page that was served
type PageInfo struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// AppliedFilters echoes the filters that took effect
type AppliedFilters struct {
	Search   string    `json:"search,omitempty"`
	Category string    `json:"category,omitempty"`
	Tech     string    `json:"tech,omitempty"`
	Tag      string    `json:"tag,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Sort     SortOrder `json:"sort"`
}

// IgnoredFilter records a filter that was dropped
type IgnoredFilter struct {
	Param  string `json:"param"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ListPage is the assembled listing response
type ListPage struct {
	Kind         Kind            `json:"kind"`
	Items        []*ContentItem  `json:"items"`
	PageInfo     PageInfo        `json:"page_info"`
	Filters      AppliedFilters  `json:"filters"`
	Ignored      []IgnoredFilter `json:"ignored_filters,omitempty"`
	Categories   []TaxonomyCount `json:"categories"`
	PopularTags  []TaxonomyCount `json:"popular_tags"`
	Technologies []TaxonomyCount `json:"technologies"`
	Featured     []*ContentItem  `json:"featured"`
}

// DetailPage is the assembled detail response
type DetailPage struct {
	Item         *ContentItem   `json:"item"`
	Related      []*ContentItem `json:"related"`
	Tags         []Tag          `json:"tags"`
	Technologies []Technology   `json:"technologies"`
	// CodeSnippets is only filled for solutions
	CodeSnippets []CodeSnippet  `json:"code_snippets,omitempty"`
}
