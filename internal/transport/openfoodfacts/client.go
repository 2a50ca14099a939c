// Package openfoodfacts is the Open Food Facts source. It needs no credentials but
// the API asks every client to identify itself through User-Agent.
package openfoodfacts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
)

// SourceName labels this provider in metrics and logs.
const SourceName = "openfoodfacts"

// DefaultSearchPageSize is how many products a search asks for.
const DefaultSearchPageSize = 24

// productFields limits responses to what the raw record carries.
const productFields = "code,product_name,brands,serving_quantity,serving_size,serving_quantity_unit,image_url,image_front_url"

// Config holds the Open Food Facts client settings.
type Config struct {
	BaseURL        string
	UserAgent      string
	SearchPageSize int
	HTTPClient     upstream.Doer
}

// Client wraps the Open Food Facts read API.
type Client struct {
	baseURL   string
	userAgent string
	pageSize  int
	http      upstream.Doer
}

// New creates an Open Food Facts client.
func New(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = upstream.NewHTTPClient()
	}
	size := cfg.SearchPageSize
	if size <= 0 {
		size = DefaultSearchPageSize
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		pageSize:  size,
		http:      hc,
	}
}

// Name implements the source contract.
func (c *Client) Name() string { return SourceName }

// healthBarcode is Nutella 400g, present in every Open Food Facts mirror.
const healthBarcode = "3017620422003"

type product struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ServingQuantity     upstream.Float `json:"serving_quantity"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	ImageURL            string         `json:"image_url"`
	ImageFrontURL       string         `json:"image_front_url"`
}

type productResponse struct {
	Status  int      `json:"status"`
	Product *product `json:"product"`
}

type searchResponse struct {
	Products []product `json:"products"`
}

// LookupBarcode fetches /api/v2/product/{code}.json. Both status:0 and 404 mean unknown.
func (c *Client) LookupBarcode(ctx context.Context, code string) ([]food.Raw, error) {
	u := c.baseURL + "/api/v2/product/" + url.PathEscape(code) + ".json?" + url.Values{"fields": {productFields}}.Encode()

	req, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp productResponse
	call := upstream.Call{Source: SourceName, Operation: "barcode", NotFoundOK: true}
	if err := upstream.DoJSON(c.http, req, call, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("openfoodfacts product: %w", err)
	}
	if resp.Status == 0 || resp.Product == nil {
		return nil, nil
	}
	if resp.Product.Code == "" {
		resp.Product.Code = code
	}
	return []food.Raw{resp.Product.toRaw()}, nil
}

// Search runs a full-text product search through /cgi/search.pl.
func (c *Client) Search(ctx context.Context, query string) ([]food.Raw, error) {
	params := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {strconv.Itoa(c.pageSize)},
		"fields":        {productFields},
	}

	req, err := c.newRequest(ctx, c.baseURL+"/cgi/search.pl?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := upstream.DoJSON(c.http, req, upstream.Call{Source: SourceName, Operation: "search"}, &resp); err != nil {
		return nil, fmt.Errorf("openfoodfacts search: %w", err)
	}

	out := make([]food.Raw, 0, len(resp.Products))
	for _, p := range resp.Products {
		out = append(out, p.toRaw())
	}
	return out, nil
}

// HealthCheck fetches a well-known product. Open Food Facts has no status endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.LookupBarcode(ctx, healthBarcode); err != nil {
		return fmt.Errorf("openfoodfacts health: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := upstream.NewRequest(ctx, SourceName, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (p product) toRaw() food.OpenFoodFactsProduct {
	return food.OpenFoodFactsProduct{
		Code:            p.Code,
		ProductName:     p.ProductName,
		Brands:          p.Brands,
		ServingQuantity: p.ServingQuantity.Ptr(),
		ServingSize:     p.ServingSize,
		QuantityUnit:    p.ServingQuantityUnit,
		ImageURL:        p.ImageURL,
		ImageFrontURL:   p.ImageFrontURL,
	}
}
