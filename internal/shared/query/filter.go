package query

type PageFilter struct {
	Page     int
	PageSize int
}

func (f PageFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

func (f PageFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

type SortFilter struct {
	SortBy    string
	SortOrder string
}

func (f SortFilter) IsDescending() bool {
	return f.SortOrder == "desc" || f.SortOrder == "DESC"
}

// OrderClause returns "" when no sort column is set.
func (f SortFilter) OrderClause() string {
	if f.SortBy == "" {
		return ""
	}
	order := "ASC"
	if f.IsDescending() {
		order = "DESC"
	}
	return f.SortBy + " " + order
}

// FindOptions controls paging and ordering of list reads.
type FindOptions struct {
	PageFilter
	SortFilter
}

type FindOption func(*FindOptions)

func WithPage(page, pageSize int) FindOption {
	return func(f *FindOptions) {
		f.Page = page
		f.PageSize = pageSize
	}
}

func WithSort(sortBy, sortOrder string) FindOption {
	return func(f *FindOptions) {
		f.SortBy = sortBy
		f.SortOrder = sortOrder
	}
}

// NewFindOptions returns unpaged options unless WithPage is given.
func NewFindOptions(opts ...FindOption) FindOptions {
	var f FindOptions
	for _, opt := range opts {
		opt(&f)
	}
	return f
}
