package persistence

import "gorm.io/gorm"

const defaultPageSize = 20

// applyPagination applies page/page_size to a query. Page numbers start at 1;
// zero values fall back to the first page with the default size.
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
