package request

import (
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength  = 256
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxURLLength    = 2048
)

var barcodeRegex = regexp.MustCompile(`^[0-9]{6,32}$`)

// Request is a validated, paginated food search.
type Request struct {
	query    string
	page     int
	pageSize int
}

// New validates and normalizes search parameters.
// Query is trimmed; pageSize 0 means DefaultPageSize and is clamped to maxPageSize.
func New(query string, page, pageSize, maxPageSize int) (Request, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return Request{}, err
	}
	if page < 0 {
		return Request{}, domain.Invalidf("page must be >= 0")
	}
	if pageSize < 0 {
		return Request{}, domain.Invalidf("pageSize must be >= 0")
	}
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if pageSize == 0 {
		pageSize = min(DefaultPageSize, maxPageSize)
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page > math.MaxInt/pageSize {
		return Request{}, domain.Invalidf("page too large")
	}

	return Request{query: query, page: page, pageSize: pageSize}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// Page returns the zero-based page index.
func (r *Request) Page() int { return r.page }

// PageSize returns the number of foods per page.
func (r *Request) PageSize() int { return r.pageSize }

// Offset returns the index of the first food of the page.
func (r *Request) Offset() int { return r.page * r.pageSize }

// ValidateQuery trims q and checks it is non-empty and at most MaxQueryLength characters.
func ValidateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.Invalidf("query is required")
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", domain.Invalidf("query too long (max %d chars)", MaxQueryLength)
	}
	return q, nil
}

// ValidateBarcode checks a UPC/EAN code: digits only, 6-32 long.
func ValidateBarcode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.Invalidf("upc is required")
	}
	if !barcodeRegex.MatchString(code) {
		return "", domain.Invalidf("upc must be 6-32 digits")
	}
	return code, nil
}

// ValidateFoodURL checks that u is an absolute http(s) URL whose host is not
// a loopback, private or link-local IP literal. Hostnames that resolve to such
// addresses are refused at dial time by the scraper's client.
func ValidateFoodURL(u string) (*url.URL, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil, domain.Invalidf("food_url is required")
	}
	if len(u) > MaxURLLength {
		return nil, domain.Invalidf("food_url too long (max %d chars)", MaxURLLength)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, domain.Invalidf("food_url is not a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, domain.Invalidf("food_url must use http or https")
	}
	if parsed.Host == "" {
		return nil, domain.Invalidf("food_url must be absolute")
	}
	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, domain.Invalidf("food_url must not target a private address")
	}
	if addr, err := netip.ParseAddr(host); err == nil && IsNonPublicAddr(addr) {
		return nil, domain.Invalidf("food_url must not target a private address")
	}
	return parsed, nil
}

// IsNonPublicAddr reports whether addr is loopback, private, link-local,
// unspecified or multicast. IPv4-mapped IPv6 addresses are unmapped first.
func IsNonPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}
