package models

// PageInfo describes how to continue a cursor listing.
type PageInfo struct {
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Page is one slice of a cursor listing.
type Page[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"pageInfo"`
}

// BuildPage trims an over-fetched result of up to limit+1 rows and derives
// the continuation cursor from the last kept row.
func BuildPage[T any](rows []T, limit int, id func(T) string) Page[T] {
	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []T{}
	}

	page := Page[T]{Items: rows, PageInfo: PageInfo{HasNextPage: hasNext}}
	if hasNext && len(rows) > 0 {
		next := id(rows[len(rows)-1])
		page.PageInfo.NextCursor = &next
	}
	return page
}

// MapPage converts the items of a page, keeping its continuation.
func MapPage[T, U any](p Page[T], fn func([]T) []U) Page[U] {
	return Page[U]{Items: fn(p.Items), PageInfo: p.PageInfo}
}
