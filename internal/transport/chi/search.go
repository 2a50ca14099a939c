package chi

import (
	"errors"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/result"
)

// SearchParams are the GET /search query parameters.
type SearchParams struct {
	Q        string
	Page     *int
	PageSize *int
}

// BarcodeParams are the GET /barcode query parameters.
type BarcodeParams struct {
	UPC string
}

// ImageParams are the GET /image query parameters.
type ImageParams struct {
	FoodURL string
}

// NutrientsParams are the GET /nutrients query parameters.
type NutrientsParams struct {
	Query string
}

// FoodJSON is the wire form of a canonical food.
type FoodJSON struct {
	Name            string      `json:"name"`
	Brand           *string     `json:"brand,omitempty"`
	ServingQuantity float64     `json:"servingQuantity"`
	ServingUnit     string      `json:"servingUnit"`
	ImageURL        *string     `json:"imageUrl,omitempty"`
	SourceID        string      `json:"sourceId"`
	Origin          food.Origin `json:"origin"`
}

// SearchResultJSON is the wire form of a page of foods.
type SearchResultJSON struct {
	Foods    []FoodJSON `json:"foods"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	HasMore  bool       `json:"hasMore"`
}

// SearchResponse wraps a search result.
type SearchResponse struct {
	Results SearchResultJSON `json:"results"`
}

// barcodeMissResponse is the 404 body for an unknown barcode.
type barcodeMissResponse struct {
	Error   string         `json:"error"`
	Results emptyFoodsJSON `json:"results"`
}

type emptyFoodsJSON struct {
	Foods []FoodJSON `json:"foods"`
}

// ImageResponse is the GET /image body.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// NutrientsJSON is the wire form of a nutrient profile. Energy in kcal, the rest in grams.
type NutrientsJSON struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// NutrientsResponse is the GET /nutrients body.
type NutrientsResponse struct {
	Nutrients NutrientsJSON `json:"nutrients"`
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter q")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter page")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "pageSize", query, &params.PageSize); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter pageSize")
		return
	}

	pageSize := s.cfg.DefaultPageSize
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}
	req, err := request.New(params.Q, derefInt(params.Page), pageSize, s.cfg.MaxPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.svc.Search.SearchAll(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: ResultJSON(&res)})
}

// Barcode handles GET /barcode.
func (s *Server) Barcode(w http.ResponseWriter, r *http.Request) {
	var params BarcodeParams
	if err := runtime.BindQueryParameter("form", true, true, "upc", r.URL.Query(), &params.UPC); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter upc")
		return
	}

	res, err := s.svc.Search.SearchByBarcode(r.Context(), params.UPC)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, barcodeMissResponse{
			Error:   "Product not found",
			Results: emptyFoodsJSON{Foods: []FoodJSON{}},
		})
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: ResultJSON(&res)})
}

// Image handles GET /image.
func (s *Server) Image(w http.ResponseWriter, r *http.Request) {
	var params ImageParams
	if err := runtime.BindQueryParameter("form", true, true, "food_url", r.URL.Query(), &params.FoodURL); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter food_url")
		return
	}

	u, err := s.svc.Search.ImageURL(r.Context(), params.FoodURL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ImageResponse{ImageURL: u})
}

// Nutrients handles GET /nutrients.
func (s *Server) Nutrients(w http.ResponseWriter, r *http.Request) {
	var params NutrientsParams
	if err := runtime.BindQueryParameter("form", true, true, "query", r.URL.Query(), &params.Query); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid parameter query")
		return
	}

	p, err := s.svc.Nutrients.Profile(r.Context(), params.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NutrientsResponse{Nutrients: NutrientsToJSON(p)})
}

// ResultJSON converts a result page to its wire form.
func ResultJSON(r *result.Result) SearchResultJSON {
	foods := make([]FoodJSON, len(r.Foods()))
	for i, f := range r.Foods() {
		foods[i] = FoodJSON{
			Name:            f.Name,
			Brand:           f.Brand,
			ServingQuantity: f.ServingQuantity,
			ServingUnit:     f.ServingUnit,
			ImageURL:        f.ImageURL,
			SourceID:        f.SourceID,
			Origin:          f.Origin,
		}
	}
	return SearchResultJSON{
		Foods:    foods,
		Page:     r.Page(),
		PageSize: r.PageSize(),
		HasMore:  r.HasMore(),
	}
}

// NutrientsToJSON converts a profile to its wire form.
func NutrientsToJSON(p food.NutrientProfile) NutrientsJSON {
	return NutrientsJSON{
		Calories: p.Calories,
		Protein:  p.Protein,
		Carbs:    p.Carbs,
		Fat:      p.Fat,
		Fiber:    p.Fiber,
		Sugar:    p.Sugar,
		Sodium:   p.Sodium,
	}
}

func nutrientsFromJSON(n *NutrientsJSON) food.NutrientProfile {
	if n == nil {
		return food.NutrientProfile{}
	}
	return food.NutrientProfile{
		Calories: n.Calories,
		Protein:  n.Protein,
		Carbs:    n.Carbs,
		Fat:      n.Fat,
		Fiber:    n.Fiber,
		Sugar:    n.Sugar,
		Sodium:   n.Sodium,
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
