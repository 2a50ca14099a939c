package request

import (
	"errors"
	"math"
	"net/netip"
	"strings"
	"testing"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  apple  ", 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "apple" {
		t.Errorf("Query() = %q, want trimmed", r.Query())
	}
	if r.Page() != 0 {
		t.Errorf("Page() = %d", r.Page())
	}
	if r.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", r.PageSize(), DefaultPageSize)
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("banana", 3, 10, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Page() != 3 || r.PageSize() != 10 {
		t.Errorf("got page=%d size=%d", r.Page(), r.PageSize())
	}
	if r.Offset() != 30 {
		t.Errorf("Offset() = %d, want 30", r.Offset())
	}
}

func TestNew_ClampsPageSize(t *testing.T) {
	r, err := New("rice", 0, 1000, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PageSize() != 50 {
		t.Errorf("PageSize() = %d, want 50", r.PageSize())
	}

	r, err = New("rice", 0, 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PageSize() != 5 {
		t.Errorf("default PageSize() = %d, want 5 (clamped to max)", r.PageSize())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{"empty query", "", 0, 0},
		{"blank query", "   ", 0, 0},
		{"too long", strings.Repeat("a", MaxQueryLength+1), 0, 0},
		{"negative page", "apple", -1, 0},
		{"negative page size", "apple", 0, -5},
		{"page offset overflows", "apple", math.MaxInt64/2 + 1, 2},
		{"max int page", "apple", math.MaxInt64, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.query, tc.page, tc.pageSize, 100)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNew_LargePageWithinRange(t *testing.T) {
	req, err := New("apple", 1_000_000, 20, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Offset() != 20_000_000 {
		t.Errorf("Offset = %d", req.Offset())
	}
}

func TestNew_MaxLengthCountsRunes(t *testing.T) {
	q := strings.Repeat("é", MaxQueryLength)
	if _, err := New(q, 0, 0, 0); err != nil {
		t.Errorf("expected %d runes to be accepted, got %v", MaxQueryLength, err)
	}
}

func TestValidateBarcode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"01234567890", false},
		{"012345678905", false},
		{"123456", false},
		{strings.Repeat("9", 32), false},
		{"12345", true},
		{strings.Repeat("9", 33), true},
		{"12345a789012", true},
		{"", true},
		{"0123-4567", true},
	}
	for _, tc := range tests {
		_, err := ValidateBarcode(tc.code)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateBarcode(%q) error = %v, wantErr %v", tc.code, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrValidation) {
			t.Errorf("ValidateBarcode(%q) should wrap ErrValidation", tc.code)
		}
	}
}

func TestIsNonPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", false},
		{"2606:4700:4700::1111", false},
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"169.254.169.254", true},
		{"::1", true},
		{"fd00::1", true},
		{"::ffff:10.0.0.1", true},
		{"224.0.0.1", true},
		{"::", true},
	}
	for _, tc := range tests {
		if got := IsNonPublicAddr(netip.MustParseAddr(tc.addr)); got != tc.want {
			t.Errorf("IsNonPublicAddr(%s) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestValidateFoodURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.example.com/food/apple", false},
		{"http://example.com", false},
		{"ftp://example.com/apple", true},
		{"/relative/path", true},
		{"", true},
		{"https://", true},
		{"https://example.com/" + strings.Repeat("a", MaxURLLength), true},
		{"https://93.184.216.34/apple", false},
		{"http://127.0.0.1/", true},
		{"http://127.0.0.1:8080/admin", true},
		{"http://169.254.169.254/latest/meta-data", true},
		{"http://10.0.0.1/", true},
		{"http://192.168.1.20/", true},
		{"http://172.16.0.5/", true},
		{"http://0.0.0.0/", true},
		{"http://[::1]/", true},
		{"http://[fe80::1]/", true},
		{"http://[::ffff:127.0.0.1]/", true},
		{"http://localhost/", true},
		{"http://LOCALHOST./", true},
		{"http://api.localhost/", true},
	}
	for _, tc := range tests {
		_, err := ValidateFoodURL(tc.url)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateFoodURL(%q) error = %v, wantErr %v", tc.url, err, tc.wantErr)
		}
	}
}
