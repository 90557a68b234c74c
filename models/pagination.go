package models

import (
	"fmt"
	"slices"
)

// DefaultPageSize is used when the caller does not ask for one.
const DefaultPageSize = 10

// PageSizes are the page sizes offered to the listing UI.
var PageSizes = []int{10, 25, 50}

// PageRequest selects a 1-based page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("%w: page %d must be at least 1", ErrInvalidPage, p.Page)
	}
	if p.PageSize < 1 {
		return fmt.Errorf("%w: page size %d must be positive", ErrInvalidPage, p.PageSize)
	}
	return nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ClampPageSize maps any requested size onto PageSizes, falling back to
// DefaultPageSize.
func ClampPageSize(size int) int {
	if slices.Contains(PageSizes, size) {
		return size
	}
	return DefaultPageSize
}

// LastPage is ceil(count / pageSize); zero when nothing matched.
func LastPage(count int64, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((count + size - 1) / size)
}

// ProductPage is one page of a filtered listing with its metadata.
type ProductPage struct {
	Products              []Product
	Count                 int64
	LastPage              int
	NumOfResultsOnCurPage int
}
