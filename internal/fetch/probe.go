package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxImageBytes bounds how much of an image body Load reads.
const maxImageBytes = 512 << 10

// ProbeError reports an image URL that did not load.
type ProbeError struct {
	URL        string
	Method     string
	StatusCode int
	Message    string
}

func (e *ProbeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
}

// Prober checks image URLs over HTTP.
type Prober struct {
	Client    *http.Client
	UserAgent string
}

// NewProber creates a prober with the given per-request timeout.
// Callers usually bound each call with a context deadline as well.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: DefaultUserAgent,
	}
}

// Load emulates a browser image load: a GET that must succeed and must not
// come back as an HTML or JSON document.
func (p *Prober) Load(ctx context.Context, url string) error {
	resp, err := p.do(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxImageBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProbeError{URL: url, Method: http.MethodGet, StatusCode: resp.StatusCode}
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); isDocumentType(ct) {
		return &ProbeError{URL: url, Method: http.MethodGet, Message: "not an image: " + ct}
	}
	return nil
}

// Head sends the explicit cross-site probe. Servers that refuse HEAD with
// 405 are not counted as broken; the preceding Load already succeeded.
func (p *Prober) Head(ctx context.Context, url string) error {
	resp, err := p.do(ctx, http.MethodHead, url)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	if resp.StatusCode >= 400 {
		return &ProbeError{URL: url, Method: http.MethodHead, StatusCode: resp.StatusCode}
	}
	return nil
}

func (p *Prober) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &ProbeError{URL: url, Method: method, Message: err.Error()}
	}
	ua := p.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// Context errors propagate as-is so callers can tell a timeout from a broken link.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, &ProbeError{URL: url, Method: method, Message: err.Error()}
	}
	return resp, nil
}

func isDocumentType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/html") ||
		strings.HasPrefix(contentType, "application/json") ||
		strings.HasPrefix(contentType, "application/xhtml")
}
