package consumption

// TotalPages is ceil(total/limit). Zero rows means zero pages on every path.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// NewPaginationMeta is used by stores to describe the page they returned.
func NewPaginationMeta(total int64, page, limit int) PaginationMeta {
	return PaginationMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}
}

// Reconcile returns raw untouched unless rows were removed after the fetch,
// in which case total and totalPages are recomputed from the survivors.
func Reconcile(raw PaginationMeta, wasPostFiltered bool, postFilteredCount int, limit int) PaginationMeta {
	if !wasPostFiltered {
		return raw
	}
	return PaginationMeta{
		Total:      int64(postFilteredCount),
		Page:       raw.Page,
		Limit:      limit,
		TotalPages: TotalPages(int64(postFilteredCount), limit),
	}
}
