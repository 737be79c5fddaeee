package utils

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ClampPage normalizes paging input: page >= 1, pageSize in [1, MaxPageSize].
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
