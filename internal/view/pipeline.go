package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Compare orders two rows: negative when a sorts first
type Compare[R any] func(a, b R) int

// Spec parametrizes the pipeline for one list page
type Spec[T any, R any] struct {
	// Join attaches derived fields to a record
	Join func(T) R
	// SearchFields returns the texts free-text search looks in
	SearchFields func(R) []string
	// Keep applies the page specific predicates; nil keeps every row
	Keep func(R, FilterState) bool
	// Sorts holds the comparator of every supported sort key
	Sorts map[string]Compare[R]
}

// Derive runs join, filter and stable sort over records, in that order.
// Unknown sort keys leave rows in collection order.
func Derive[T any, R any](records []T, spec Spec[T, R], state FilterState) []R {
	rows := make([]R, 0, len(records))
	for _, record := range records {
		rows = append(rows, spec.Join(record))
	}

	rows = filter(rows, spec, state)

	if compare, ok := spec.Sorts[state.SortKey]; ok {
		if state.SortDirection == Desc {
			asc := compare
			compare = func(a, b R) int { return asc(b, a) }
		}
		slices.SortStableFunc(rows, compare)
	}

	return rows
}

func filter[T any, R any](rows []R, spec Spec[T, R], state FilterState) []R {
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(state.Search))

	kept := rows[:0]
	for _, row := range rows {
		if query != "" && !matches(fold, query, spec.SearchFields(row)) {
			continue
		}
		if spec.Keep != nil && !spec.Keep(row, state) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func matches(fold cases.Caser, query string, fields []string) bool {
	for _, field := range fields {
		if strings.Contains(fold.String(field), query) {
			return true
		}
	}
	return false
}

// Page is one page of derived rows
type Page[R any] struct {
	Rows     []R `json:"rows"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// Paginate cuts page (1-based) of size rows out of rows. A size below 1
// puts everything on one page; out of range pages are clamped.
func Paginate[R any](rows []R, page, size int) Page[R] {
	total := len(rows)
	if size < 1 {
		size = max(total, 1)
	}

	pages := max((total+size-1)/size, 1)
	page = min(max(page, 1), pages)

	start := min((page-1)*size, total)
	end := min(start+size, total)

	out := make([]R, end-start)
	copy(out, rows[start:end])

	return Page[R]{
		Rows:     out,
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    pages,
	}
}
