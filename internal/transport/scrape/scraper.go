// Package scrape finds a representative image for a food page by reading its
// Open Graph, Twitter card and image_src metadata.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/transport/upstream"
)

// SourceName labels the scraper in metrics and logs.
const SourceName = "scraper"

// DefaultMaxBodyBytes bounds how much HTML is parsed.
const DefaultMaxBodyBytes = 2 << 20

// Config holds scraper settings.
type Config struct {
	UserAgent    string
	MaxBodyBytes int64
	// HTTPClient defaults to a client that refuses internal addresses.
	HTTPClient upstream.Doer
}

// Scraper fetches a page and extracts its preview image.
type Scraper struct {
	userAgent string
	maxBody   int64
	http      upstream.Doer
}

// New creates a Scraper.
func New(cfg *Config) *Scraper {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = upstream.NewPublicHTTPClient()
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return &Scraper{userAgent: cfg.UserAgent, maxBody: limit, http: hc}
}

// Name implements the source contract.
func (s *Scraper) Name() string { return SourceName }

// ImageURL returns the absolute preview image URL of foodURL, or domain.ErrNotFound.
func (s *Scraper) ImageURL(ctx context.Context, foodURL string) (string, error) {
	page, err := url.Parse(foodURL)
	if err != nil {
		return "", domain.Invalidf("invalid food url")
	}

	req, err := upstream.NewRequest(ctx, SourceName, http.MethodGet, page.String(), http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	call := upstream.Call{Source: SourceName, Operation: "image", NotFoundOK: true}
	body, err := upstream.Do(s.http, req, call)
	if err != nil {
		return "", fmt.Errorf("fetch food page: %w", err)
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, s.maxBody))
	if err != nil {
		return "", domain.WrapSourceError(SourceName, fmt.Errorf("parse html: %w", err))
	}
	upstream.RecordSuccess(call)

	raw := findImage(doc)
	if raw == "" {
		return "", fmt.Errorf("no preview image on page: %w", domain.ErrNotFound)
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("malformed image url: %w", domain.ErrNotFound)
	}
	return page.ResolveReference(ref).String(), nil
}

// candidate priority: og:image, then twitter:image, then <link rel="image_src">.
const (
	rankOG = iota
	rankTwitter
	rankLink
	rankNone
)

func findImage(doc *html.Node) string {
	best, bestRank := "", rankNone

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if bestRank == rankOG {
			return
		}
		if n.Type == html.ElementNode {
			if v, rank := candidate(n); rank < bestRank && v != "" {
				best, bestRank = v, rank
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return best
}

func candidate(n *html.Node) (string, int) {
	switch n.Data {
	case "meta":
		key := attr(n, "property")
		if key == "" {
			key = attr(n, "name")
		}
		switch strings.ToLower(key) {
		case "og:image", "og:image:url", "og:image:secure_url":
			return strings.TrimSpace(attr(n, "content")), rankOG
		case "twitter:image", "twitter:image:src":
			return strings.TrimSpace(attr(n, "content")), rankTwitter
		}
	case "link":
		for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
			if rel == "image_src" {
				return strings.TrimSpace(attr(n, "href")), rankLink
			}
		}
	}
	return "", rankNone
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
