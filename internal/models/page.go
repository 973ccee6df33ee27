package models

import "math"

type PageRequest struct {
	Page int
	Size int
}

// Offset saturates at math.MaxInt instead of wrapping for absurd page numbers.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Size <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Size
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Paginate slices an already filtered list. Out of range pages come back empty.
func Paginate[T any](all []T, req PageRequest) Page[T] {
	page := Page[T]{Items: []T{}, Total: len(all), Page: req.Page, PageSize: req.Size}
	if req.Size <= 0 {
		page.Items = all
		if page.Items == nil {
			page.Items = []T{}
		}
		return page
	}
	start := req.Offset()
	if start >= len(all) {
		return page
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	page.Items = all[start:end]
	return page
}
