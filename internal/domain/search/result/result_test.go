package result

import (
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

func makeFoods(n int) []food.Food {
	out := make([]food.Food, n)
	for i := range out {
		out[i] = food.Food{Name: fmt.Sprintf("food-%d", i), ServingUnit: "g"}
	}
	return out
}

func TestPaginate_FirstPage(t *testing.T) {
	r := Paginate(makeFoods(5), 0, 2)
	if len(r.Foods()) != 2 {
		t.Fatalf("expected 2 foods, got %d", len(r.Foods()))
	}
	if r.Foods()[0].Name != "food-0" || r.Foods()[1].Name != "food-1" {
		t.Errorf("unexpected foods %v", r.Foods())
	}
	if !r.HasMore() {
		t.Error("expected HasMore")
	}
}

func TestPaginate_LastPartialPage(t *testing.T) {
	r := Paginate(makeFoods(5), 2, 2)
	if len(r.Foods()) != 1 {
		t.Fatalf("expected 1 food, got %d", len(r.Foods()))
	}
	if r.Foods()[0].Name != "food-4" {
		t.Errorf("got %q", r.Foods()[0].Name)
	}
	if r.HasMore() {
		t.Error("last page should not have more")
	}
}

func TestPaginate_ExactFit(t *testing.T) {
	r := Paginate(makeFoods(2), 0, 2)
	if len(r.Foods()) != 2 || r.HasMore() {
		t.Errorf("got %d foods, hasMore=%v", len(r.Foods()), r.HasMore())
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	r := Paginate(makeFoods(3), 10, 2)
	if !r.IsEmpty() {
		t.Errorf("expected empty page, got %d foods", len(r.Foods()))
	}
	if r.Page() != 10 || r.PageSize() != 2 {
		t.Errorf("page/pageSize not echoed: %d/%d", r.Page(), r.PageSize())
	}
	if r.Foods() == nil {
		t.Error("Foods() should be an empty slice, not nil")
	}
}

func TestPaginate_HugePage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		page     int
		pageSize int
	}{
		{"wraps negative", 3, math.MaxInt64/2 + 1, 2},
		{"wraps to zero", 3, math.MaxInt64/4 + 1, 4},
		{"max int page", 3, math.MaxInt64, 100},
		{"empty input", 0, math.MaxInt64/2 + 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Paginate(makeFoods(tt.total), tt.page, tt.pageSize)
			if !r.IsEmpty() || r.HasMore() {
				t.Errorf("expected empty page, got %d foods hasMore=%v", len(r.Foods()), r.HasMore())
			}
			if r.Page() != tt.page {
				t.Errorf("page not echoed: %d", r.Page())
			}
		})
	}
}

func TestPaginate_NeverExceedsPageSize(t *testing.T) {
	all := makeFoods(23)
	for size := 1; size <= 25; size++ {
		for page := 0; page <= 25; page++ {
			r := Paginate(all, page, size)
			if len(r.Foods()) > size {
				t.Fatalf("page=%d size=%d returned %d foods", page, size, len(r.Foods()))
			}
		}
	}
}

func TestPaginate_DoesNotAliasInput(t *testing.T) {
	all := makeFoods(3)
	r := Paginate(all, 0, 2)
	r.Foods()[0].Name = "changed"
	if all[0].Name != "food-0" {
		t.Error("Paginate must copy the page")
	}
}

func TestEmpty(t *testing.T) {
	r := Empty(1, 20)
	if !r.IsEmpty() || r.HasMore() {
		t.Error("expected empty result without more")
	}
	if r.Page() != 1 || r.PageSize() != 20 {
		t.Errorf("got %d/%d", r.Page(), r.PageSize())
	}
}
