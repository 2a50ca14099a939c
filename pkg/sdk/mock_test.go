package nutrisearch

import (
	"context"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/nutrisearch/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn  func(ctx context.Context, req *request.Request) (result.Result, error)
	barcodeFn func(ctx context.Context, code string) (result.Result, error)
	imageFn   func(ctx context.Context, foodURL string) (string, error)
}

func (m *mockSearchUC) SearchAll(ctx context.Context, req *request.Request) (result.Result, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) SearchByBarcode(ctx context.Context, code string) (result.Result, error) {
	return m.barcodeFn(ctx, code)
}

func (m *mockSearchUC) ImageURL(ctx context.Context, foodURL string) (string, error) {
	return m.imageFn(ctx, foodURL)
}

// --- nutrientsUseCase mock ---

type mockNutrientsUC struct {
	profileFn func(ctx context.Context, query string) (food.NutrientProfile, error)
}

func (m *mockNutrientsUC) Profile(ctx context.Context, query string) (food.NutrientProfile, error) {
	return m.profileFn(ctx, query)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
