package pagination

const (
	// DefaultPageSize applies when a page size is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Page is the paginated list envelope returned to clients.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// Normalize clamps page to at least 1 and page size to the default and maximum.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// NewPage wraps items with the normalized params and the total row count.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	n := p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: n.Page, PageSize: n.PageSize}
}

// Map converts the items of a page while keeping its counters.
func Map[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Items))
	for _, item := range in.Items {
		out = append(out, fn(item))
	}
	return Page[U]{Items: out, Total: in.Total, Page: in.Page, PageSize: in.PageSize}
}
