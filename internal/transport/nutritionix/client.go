// Package nutritionix is the Nutritionix v2 source: instant search over the common and
// branded catalogs, UPC lookup and natural-language nutrient parsing.
package nutritionix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
)

// SourceName labels this provider in metrics and logs.
const SourceName = "nutritionix"

// Config holds the Nutritionix client settings.
type Config struct {
	AppID      string
	AppKey     string
	BaseURL    string
	HTTPClient upstream.Doer
}

// Client wraps the Nutritionix v2 REST API.
type Client struct {
	appID   string
	appKey  string
	baseURL string
	http    upstream.Doer
}

// New creates a Nutritionix client.
func New(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = upstream.NewHTTPClient()
	}
	return &Client{
		appID:   cfg.AppID,
		appKey:  cfg.AppKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}
}

// Name implements the source contract.
func (c *Client) Name() string { return SourceName }

type photo struct {
	Thumb   string `json:"thumb"`
	HighRes string `json:"highres"`
}

type commonItem struct {
	FoodName    string          `json:"food_name"`
	ServingUnit string          `json:"serving_unit"`
	ServingQty  upstream.Float  `json:"serving_qty"`
	TagID       json.RawMessage `json:"tag_id"`
	Photo       photo           `json:"photo"`
}

type brandedItem struct {
	FoodName    string         `json:"food_name"`
	BrandName   string         `json:"brand_name"`
	ServingUnit string         `json:"serving_unit"`
	ServingQty  upstream.Float `json:"serving_qty"`
	NixItemID   string         `json:"nix_item_id"`
	Calories    upstream.Float `json:"nf_calories"`
	Photo       photo          `json:"photo"`
}

type instantResponse struct {
	Common  []commonItem  `json:"common"`
	Branded []brandedItem `json:"branded"`
}

type itemResponse struct {
	Foods []brandedItem `json:"foods"`
}

// Search queries /v2/search/instant. Common foods come first, then branded.
func (c *Client) Search(ctx context.Context, query string) ([]food.Raw, error) {
	u := c.baseURL + "/v2/search/instant?" + url.Values{"query": {query}}.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	var resp instantResponse
	call := upstream.Call{Source: SourceName, Operation: "search"}
	if err := upstream.DoJSON(c.http, req, call, &resp); err != nil {
		return nil, fmt.Errorf("nutritionix instant search: %w", err)
	}

	out := make([]food.Raw, 0, len(resp.Common)+len(resp.Branded))
	for _, it := range resp.Common {
		out = append(out, it.toRaw())
	}
	for _, it := range resp.Branded {
		out = append(out, it.toRaw())
	}
	return out, nil
}

// LookupBarcode queries /v2/search/item?upc=. An unknown UPC (404) is an empty result.
func (c *Client) LookupBarcode(ctx context.Context, code string) ([]food.Raw, error) {
	u := c.baseURL + "/v2/search/item?" + url.Values{"upc": {code}}.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	var resp itemResponse
	call := upstream.Call{Source: SourceName, Operation: "barcode", NotFoundOK: true}
	if err := upstream.DoJSON(c.http, req, call, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("nutritionix upc lookup: %w", err)
	}

	out := make([]food.Raw, 0, len(resp.Foods))
	for _, it := range resp.Foods {
		out = append(out, it.toRaw())
	}
	return out, nil
}

type nutrientsRequest struct {
	Query string `json:"query"`
}

type nutrientFood struct {
	Calories upstream.Float `json:"nf_calories"`
	Protein  upstream.Float `json:"nf_protein"`
	Carbs    upstream.Float `json:"nf_total_carbohydrate"`
	Fat      upstream.Float `json:"nf_total_fat"`
	Fiber    upstream.Float `json:"nf_dietary_fiber"`
	Sugar    upstream.Float `json:"nf_sugars"`
	SodiumMg upstream.Float `json:"nf_sodium"`
}

type nutrientsResponse struct {
	Foods []nutrientFood `json:"foods"`
}

// Nutrients parses a natural-language description ("2 eggs and a slice of toast")
// via /v2/natural/nutrients and sums every recognized food.
func (c *Client) Nutrients(ctx context.Context, query string) (food.NutrientProfile, error) {
	body, err := json.Marshal(nutrientsRequest{Query: query})
	if err != nil {
		return food.NutrientProfile{}, fmt.Errorf("marshal nutrients request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/v2/natural/nutrients", bytes.NewReader(body))
	if err != nil {
		return food.NutrientProfile{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp nutrientsResponse
	// Nutritionix answers 404 when nothing in the query is recognized.
	call := upstream.Call{Source: SourceName, Operation: "nutrients", NotFoundOK: true}
	if err := upstream.DoJSON(c.http, req, call, &resp); err != nil {
		return food.NutrientProfile{}, fmt.Errorf("nutritionix natural nutrients: %w", err)
	}
	if len(resp.Foods) == 0 {
		return food.NutrientProfile{}, fmt.Errorf("nutritionix natural nutrients: %w", domain.ErrNotFound)
	}

	var total food.NutrientProfile
	for _, f := range resp.Foods {
		total = total.Add(food.NutrientProfile{
			Calories: f.Calories.Or(0),
			Protein:  f.Protein.Or(0),
			Carbs:    f.Carbs.Or(0),
			Fat:      f.Fat.Or(0),
			Fiber:    f.Fiber.Or(0),
			Sugar:    f.Sugar.Or(0),
			Sodium:   food.MilligramsToGrams(f.SodiumMg.Or(0)),
		})
	}
	return total, nil
}

// HealthCheck verifies credentials with a cheap instant search.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Search(ctx, "apple"); err != nil {
		return fmt.Errorf("nutritionix health: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := upstream.NewRequest(ctx, SourceName, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)
	return req, nil
}

func (it commonItem) toRaw() food.NutritionixCommon {
	return food.NutritionixCommon{
		FoodName:     it.FoodName,
		ServingQty:   it.ServingQty.Ptr(),
		ServingUnit:  it.ServingUnit,
		TagID:        rawID(it.TagID),
		PhotoThumb:   it.Photo.Thumb,
		PhotoHighRes: it.Photo.HighRes,
	}
}

func (it brandedItem) toRaw() food.NutritionixBranded {
	return food.NutritionixBranded{
		FoodName:    it.FoodName,
		BrandName:   it.BrandName,
		ServingQty:  it.ServingQty.Ptr(),
		ServingUnit: it.ServingUnit,
		NixItemID:   it.NixItemID,
		PhotoThumb:  it.Photo.Thumb,
		Calories:    it.Calories.Ptr(),
	}
}

// rawID accepts an identifier encoded either as a JSON string or a number.
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
