package services

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest parses raw query values. Missing or invalid values fall back to
// page 1 and the given default limit; limits above MaxPageSize are capped. Page is
// capped so the skip offset always fits in an int64.
func NewPageRequest(pageStr, limitStr string, defaultLimit int) PageRequest {
	p := PageRequest{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Limit > 0 {
		if maxPage := math.MaxInt64 / int64(p.Limit); int64(p.Page) > maxPage {
			p.Page = int(maxPage)
		}
	}
	return p
}

// Skip saturates instead of overflowing.
func (p PageRequest) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if int64(p.Page-1) > math.MaxInt64/int64(p.Limit) {
		return math.MaxInt64
	}
	return int64(p.Page-1) * int64(p.Limit)
}

type Pagination struct {
	Current      int   `json:"current"`
	PageSize     int   `json:"pageSize"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

func BuildPagination(p PageRequest, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		Current:      p.Page,
		PageSize:     p.Limit,
		TotalPages:   pages,
		TotalRecords: total,
		HasNext:      p.Page < pages,
		HasPrev:      p.Page > 1,
	}
}
