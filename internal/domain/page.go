package domain

import "math"

// Page is one slice of a paginated listing. Page numbers start at 1.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int64
}

func NewPage[T any](items []T, page, perPage int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: page, PerPage: perPage, Total: total}
}

// Pages is zero when there are no items.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.Pages() }
func (p Page[T]) PrevNum() int  { return p.Page - 1 }
func (p Page[T]) NextNum() int  { return p.Page + 1 }

// Offset converts a 1-indexed page number into a row offset, clamping bad input to page 1.
// Pages whose offset would overflow int map to math.MaxInt, which is past any table.
func Offset(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		return page, 0
	}
	if page-1 > math.MaxInt/size {
		return page, math.MaxInt
	}
	return page, (page - 1) * size
}
