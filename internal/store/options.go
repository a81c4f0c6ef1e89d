package store

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
