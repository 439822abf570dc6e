package repositories

// maxPageSize caps a single list page. Requests above the cap are clamped,
// not rejected.
const maxPageSize = 500

// defaultPageSize applies when the caller passes no limit.
const defaultPageSize = 100

// normalizePageParams ensures skip and limit are within bounds.
func normalizePageParams(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit
}
