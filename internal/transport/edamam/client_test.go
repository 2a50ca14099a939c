package edamam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(&Config{AppID: "app", AppKey: "secret", BaseURL: server.URL, HTTPClient: server.Client()})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != parserPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q.Get("ingr") != "apple" || q.Get("app_id") != "app" || q.Get("app_key") != "secret" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"text":"apple","hints":[
			{"food":{"foodId":"food_a1","label":"Apple","category":"Generic foods","image":"https://e/apple.jpg"},
			 "measures":[{"label":"Whole","weight":182},{"label":"Serving","weight":"110"}]},
			{"food":{"foodId":"food_b2","label":"Apple Sauce","brand":"Mott's"},
			 "measures":[{"label":"Gram","weight":1}]}
		]}`))
	})

	got, err := c.Search(context.Background(), "apple")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	weight := 110.0
	want := []food.Raw{
		food.EdamamHint{
			FoodID: "food_a1", Label: "Apple", Category: "Generic foods",
			Image: "https://e/apple.jpg", ServingWeight: &weight,
		},
		food.EdamamHint{FoodID: "food_b2", Label: "Apple Sauce", Brand: "Mott's"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Search(context.Background(), "apple")
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearch_NotFoundIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Search(context.Background(), "apple")
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLookupBarcode(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCount int
		wantErr   error
	}{
		{
			name:      "found",
			status:    http.StatusOK,
			body:      `{"hints":[{"food":{"foodId":"f1","label":"Cola","brand":"Coca-Cola"}}]}`,
			wantCount: 1,
		},
		{name: "unknown code", status: http.StatusNotFound, wantCount: 0},
		{name: "server error", status: http.StatusInternalServerError, wantErr: domain.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("upc") != "5449000000996" {
					t.Errorf("upc = %q", r.URL.Query().Get("upc"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.LookupBarcode(context.Background(), "5449000000996")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("expected %d raws, got %d", tt.wantCount, len(got))
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"bad credentials", http.StatusUnauthorized, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"hints":[]}`))
			})
			if err := c.HealthCheck(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
