// Package upstream holds the HTTP plumbing shared by the nutrition provider clients:
// request execution, status classification, bounded JSON decoding and per-source metrics.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/search/request"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
)

// MaxResponseBytes bounds how much of an upstream body is read.
const MaxResponseBytes = 8 << 20

// DefaultTimeout is the HTTP client timeout used when none is supplied.
// Aggregation applies its own, shorter per-call deadline through the context.
const DefaultTimeout = 15 * time.Second

// Status labels for source metrics.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Doer executes HTTP requests (satisfied by *http.Client).
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns an *http.Client with a sane default timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// ErrNonPublicAddr is returned when a public-only client is asked to dial an internal address.
var ErrNonPublicAddr = errors.New("refusing to dial non-public address")

// NewPublicHTTPClient returns a client that refuses to connect to loopback,
// private or link-local addresses. The check runs on the resolved address,
// so hostnames pointing inside the network are refused as well.
func NewPublicHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   denyNonPublic,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: DefaultTimeout, Transport: transport}
}

func denyNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNonPublicAddr, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || request.IsNonPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrNonPublicAddr, host)
	}
	return nil
}

// Call describes one upstream request.
type Call struct {
	Source    string // metrics/log label, e.g. "nutritionix"
	Operation string // metrics label: search, barcode, nutrients, image
	// NotFoundOK maps 404 to domain.ErrNotFound instead of a source failure.
	NotFoundOK bool
}

// DoJSON executes req and decodes a 2xx JSON body into out.
// Failures wrap domain.ErrSourceUnavailable; a tolerated 404 returns domain.ErrNotFound.
func DoJSON(c Doer, req *http.Request, call Call, out any) error {
	body, err := Do(c, req, call)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(io.LimitReader(body, MaxResponseBytes)).Decode(out); err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusError).Inc()
		return domain.WrapSourceError(call.Source, fmt.Errorf("decode %s response: %w", call.Operation, err))
	}
	metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusSuccess).Inc()
	return nil
}

// Do executes req and returns the body of a 2xx response. The caller closes it and
// records the success metric; failures are recorded here.
func Do(c Doer, req *http.Request, call Call) (io.ReadCloser, error) {
	start := time.Now()
	resp, err := c.Do(req)
	metrics.SourceRequestDuration.WithLabelValues(call.Source, call.Operation).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusError).Inc()
		if ctxErr := req.Context().Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return nil, domain.WrapSourceError(call.Source, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound && call.NotFoundOK:
		drain(resp.Body)
		metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusNotFound).Inc()
		return nil, domain.ErrNotFound
	default:
		drain(resp.Body)
		metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusError).Inc()
		return nil, domain.NewSourceError(call.Source, resp.StatusCode)
	}
}

// NewRequest builds a request bound to ctx, wrapping construction errors as source failures.
func NewRequest(ctx context.Context, source, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, domain.WrapSourceError(source, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// RecordSuccess counts a successful call whose body was consumed by the caller.
func RecordSuccess(call Call) {
	metrics.SourceRequestsTotal.WithLabelValues(call.Source, call.Operation, StatusSuccess).Inc()
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
