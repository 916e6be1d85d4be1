package util

const DefaultPageSize = 20

// Calculate turns a 1-based page and a page size into an offset/limit pair.
func Calculate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = DefaultPageSize
	}
	return (page - 1) * limit, limit
}
