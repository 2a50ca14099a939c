package result

import "github.com/kailas-cloud/nutrisearch/internal/domain/food"

// Result is one page of aggregated foods.
type Result struct {
	foods    []food.Food
	page     int
	pageSize int
	hasMore  bool
}

// New creates a page result. foods must already be sliced to pageSize.
func New(foods []food.Food, page, pageSize int, hasMore bool) Result {
	if foods == nil {
		foods = []food.Food{}
	}
	return Result{foods: foods, page: page, pageSize: pageSize, hasMore: hasMore}
}

// Empty returns a result with no foods that echoes page and pageSize.
func Empty(page, pageSize int) Result {
	return New(nil, page, pageSize, false)
}

// Paginate slices all to [page*pageSize, page*pageSize+pageSize).
// An out-of-range page yields an empty result, never an error.
func Paginate(all []food.Food, page, pageSize int) Result {
	if page < 0 || pageSize <= 0 || len(all) == 0 {
		return Empty(page, pageSize)
	}
	// Compare before multiplying so a huge page cannot overflow start.
	if page > (len(all)-1)/pageSize {
		return Empty(page, pageSize)
	}
	start := page * pageSize
	end := min(start+pageSize, len(all))

	out := make([]food.Food, end-start)
	copy(out, all[start:end])
	return New(out, page, pageSize, end < len(all))
}

// Foods returns the foods of this page.
func (r *Result) Foods() []food.Food { return r.foods }

// Page returns the zero-based page index.
func (r *Result) Page() int { return r.page }

// PageSize returns the requested page size.
func (r *Result) PageSize() int { return r.pageSize }

// HasMore reports whether a following page has foods.
func (r *Result) HasMore() bool { return r.hasMore }

// IsEmpty reports whether the page has no foods.
func (r *Result) IsEmpty() bool { return len(r.foods) == 0 }
