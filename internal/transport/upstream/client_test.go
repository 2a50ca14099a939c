package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
)

func TestDoJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"apple"}`))
	}))
	defer server.Close()

	req, err := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	call := Call{Source: "test_ok", Operation: "search"}
	var out struct {
		Name string `json:"name"`
	}
	if err := DoJSON(server.Client(), req, call, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Name != "apple" {
		t.Errorf("Name = %q", out.Name)
	}
	if v := testutil.ToFloat64(metrics.SourceRequestsTotal.WithLabelValues("test_ok", "search", StatusSuccess)); v != 1 {
		t.Errorf("expected 1 success, got %f", v)
	}
}

func TestDoJSON_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	req, _ := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
	err := DoJSON(server.Client(), req, Call{Source: "test_429", Operation: "search"}, &struct{}{})

	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	var se *domain.SourceError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected SourceError with 429, got %v", err)
	}
}

func TestDoJSON_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer server.Close()

	t.Run("tolerated", func(t *testing.T) {
		req, _ := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
		err := DoJSON(server.Client(), req, Call{Source: "test_404", Operation: "barcode", NotFoundOK: true}, &struct{}{})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if errors.Is(err, domain.ErrSourceUnavailable) {
			t.Error("tolerated 404 must not be a source failure")
		}
	})

	t.Run("not tolerated", func(t *testing.T) {
		req, _ := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
		err := DoJSON(server.Client(), req, Call{Source: "test_404", Operation: "search"}, &struct{}{})
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestDoJSON_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	req, _ := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
	err := DoJSON(server.Client(), req, Call{Source: "test_bad", Operation: "search"}, &struct{}{})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestDoJSON_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := NewRequest(ctx, "test", http.MethodGet, server.URL, http.NoBody)
	err := DoJSON(server.Client(), req, Call{Source: "test_slow", Operation: "search"}, &struct{}{})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline to be reachable, got %v", err)
	}
}

func TestFloat_Unmarshal(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		value float64
	}{
		{`1.5`, true, 1.5},
		{`"2"`, true, 2},
		{`" 3.25 "`, true, 3.25},
		{`null`, false, 0},
		{`""`, false, 0},
		{`"1 cup"`, false, 0},
		{`{"a":1}`, false, 0},
		{`[1]`, false, 0},
	}
	for _, tc := range tests {
		var f Float
		if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tc.in, err)
			continue
		}
		if f.Valid != tc.valid || f.Value != tc.value {
			t.Errorf("Unmarshal(%s) = %+v, want valid=%v value=%v", tc.in, f, tc.valid, tc.value)
		}
	}
}

func TestFloat_InStruct(t *testing.T) {
	var v struct {
		Qty Float `json:"qty"`
	}
	if err := json.Unmarshal([]byte(`{"qty":"abc"}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Qty.Ptr() != nil {
		t.Error("expected nil Ptr for garbage")
	}
	if v.Qty.Or(7) != 7 {
		t.Error("expected default from Or")
	}
}

func TestDenyNonPublic(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{"93.184.216.34:443", false},
		{"[2606:4700:4700::1111]:443", false},
		{"127.0.0.1:80", true},
		{"169.254.169.254:80", true},
		{"10.0.0.7:8080", true},
		{"[::1]:443", true},
		{"[::ffff:192.168.0.1]:80", true},
		{"not-an-address", true},
	}
	for _, tt := range tests {
		err := denyNonPublic("tcp", tt.address, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("denyNonPublic(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrNonPublicAddr) {
			t.Errorf("denyNonPublic(%q) error %v does not wrap ErrNonPublicAddr", tt.address, err)
		}
	}
}

func TestPublicHTTPClient_RefusesLoopback(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := NewRequest(context.Background(), "test", http.MethodGet, server.URL, http.NoBody)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	_, err = Do(NewPublicHTTPClient(), req, Call{Source: "test", Operation: "image"})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrNonPublicAddr) {
		t.Fatalf("expected ErrNonPublicAddr in chain, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("loopback server was reached %d times", hits)
	}
}
