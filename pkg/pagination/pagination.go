package pagination

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 25
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page/pageSize inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// NormalizePage enforces a 1-based page number.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// NormalizePageSize enforces the configured default and maximum sizes.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Offset converts normalized page inputs into a row offset.
func Offset(page, size int) int {
	return (NormalizePage(page) - 1) * NormalizePageSize(size)
}

// TotalPages derives the page count for a result set.
func TotalPages(total int64, size int) int {
	normalized := int64(NormalizePageSize(size))
	if total <= 0 {
		return 0
	}
	pages := total / normalized
	if total%normalized != 0 {
		pages++
	}
	return int(pages)
}
