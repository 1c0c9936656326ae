package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
	// MaxPage keeps skip and the feed working set bounded.
	MaxPage = 1000
)

// PageQuery is bound from ?page=&limit=. Callers preset the defaults before binding.
type PageQuery struct {
	Page  int `query:"page" validate:"min=1,max=1000"`
	Limit int `query:"limit" validate:"min=1,max=50"`
}

func NewPageQuery() PageQuery {
	return PageQuery{Page: DefaultPage, Limit: DefaultLimit}
}

func (q PageQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

func NewPagination(q PageQuery, total int64) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: pages,
		HasMore:    q.Page < pages,
	}
}
