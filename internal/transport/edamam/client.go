// Package edamam is the Edamam Food Database v2 source.
package edamam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
)

// SourceName labels this provider in metrics and logs.
const SourceName = "edamam"

const parserPath = "/api/food-database/v2/parser"

// Config holds the Edamam client settings.
type Config struct {
	AppID      string
	AppKey     string
	BaseURL    string
	HTTPClient upstream.Doer
}

// Client wraps the Edamam food-database parser.
type Client struct {
	appID   string
	appKey  string
	baseURL string
	http    upstream.Doer
}

// New creates an Edamam client.
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

type measure struct {
	Label  string         `json:"label"`
	Weight upstream.Float `json:"weight"`
}

type foodEntry struct {
	FoodID   string `json:"foodId"`
	Label    string `json:"label"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

type hint struct {
	Food     foodEntry `json:"food"`
	Measures []measure `json:"measures"`
}

type parserResponse struct {
	Hints []hint `json:"hints"`
}

// Search queries the parser with ingr=query and returns its hints.
func (c *Client) Search(ctx context.Context, query string) ([]food.Raw, error) {
	raws, err := c.parse(ctx, "search", url.Values{"ingr": {query}}, false)
	if err != nil {
		return nil, fmt.Errorf("edamam search: %w", err)
	}
	return raws, nil
}

// LookupBarcode queries the parser with upc=code. Edamam answers 404 for unknown codes.
func (c *Client) LookupBarcode(ctx context.Context, code string) ([]food.Raw, error) {
	raws, err := c.parse(ctx, "barcode", url.Values{"upc": {code}}, true)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("edamam upc lookup: %w", err)
	}
	return raws, nil
}

// HealthCheck verifies credentials with a one-word parser query.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.parse(ctx, "health", url.Values{"ingr": {"apple"}}, false); err != nil {
		return fmt.Errorf("edamam health: %w", err)
	}
	return nil
}

func (c *Client) parse(ctx context.Context, op string, params url.Values, notFoundOK bool) ([]food.Raw, error) {
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)

	req, err := upstream.NewRequest(ctx, SourceName, http.MethodGet, c.baseURL+parserPath+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}

	var resp parserResponse
	call := upstream.Call{Source: SourceName, Operation: op, NotFoundOK: notFoundOK}
	if err := upstream.DoJSON(c.http, req, call, &resp); err != nil {
		return nil, err
	}

	out := make([]food.Raw, 0, len(resp.Hints))
	for _, h := range resp.Hints {
		out = append(out, h.toRaw())
	}
	return out, nil
}

func (h hint) toRaw() food.EdamamHint {
	return food.EdamamHint{
		FoodID:        h.Food.FoodID,
		Label:         h.Food.Label,
		Brand:         h.Food.Brand,
		Category:      h.Food.Category,
		Image:         h.Food.Image,
		ServingWeight: servingWeight(h.Measures),
	}
}

// servingWeight returns the gram weight of the "Serving" measure, if listed.
func servingWeight(ms []measure) *float64 {
	for _, m := range ms {
		if strings.EqualFold(m.Label, "serving") && m.Weight.Valid && m.Weight.Value > 0 {
			return m.Weight.Ptr()
		}
	}
	return nil
}
