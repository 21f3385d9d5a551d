package service

import (
	"errors"
	"math"
	"strconv"

	"github.com/fallousenghor/visit-backend/internal/repository"
)

const (
	maxPageSize = 100
	// maxOffset keeps (page-1)*limit representable in every SQL dialect.
	maxOffset = math.MaxInt32
)

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// ParsePage coerces raw page and limit query values. Missing, non-numeric or
// non-positive values fall back to page 1 and defaultLimit; limit is capped at 100.
// Pages past the largest representable offset are clamped to it and come back empty.
func ParsePage(rawPage, rawLimit string, defaultLimit int) repository.Page {
	page := positiveInt(rawPage, 1)
	limit := positiveInt(rawLimit, defaultLimit)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if lastPage := maxOffset/limit + 1; page > lastPage {
		page = lastPage
	}
	return repository.Page{Number: page, Size: limit}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		// out of range: Atoi already returned the largest int
		return n
	}
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(page repository.Page, total int64) Pagination {
	pages := 0
	if page.Size > 0 {
		pages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}
	return Pagination{
		Total:      total,
		Page:       page.Number,
		Limit:      page.Size,
		TotalPages: pages,
	}
}
