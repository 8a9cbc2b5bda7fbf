package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/markup-checker/internal/checks"
	"github.com/jonathan/markup-checker/internal/executor"
	"github.com/jonathan/markup-checker/internal/refstore"
	"github.com/jonathan/markup-checker/internal/server/ratelimit"
	"github.com/jonathan/markup-checker/internal/types"
)

const upstreamPage = `<html><head><title>春の新商品</title></head><body><p>hello</p></body></html>`

// newTestServer creates a server backed by an in-memory store
func newTestServer(t *testing.T, limits *ratelimit.Config) *Server {
	t.Helper()
	if limits == nil {
		limits = &ratelimit.Config{Enabled: false}
	}
	s, err := New(Config{RateLimit: limits, FetchTimeout: 5 * time.Second}, Deps{
		Store:    refstore.NewMemoryStore(),
		Executor: executor.New(checks.NewStandardRegistry(), executor.Options{}),
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

// newUpstream serves a fixed page at /page and 404 elsewhere
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(upstreamPage))
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	return upstream
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp["error"]
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Error("expected error without a store")
	}
	if _, err := New(Config{}, Deps{Store: refstore.NewMemoryStore()}); err == nil {
		t.Error("expected error without an executor")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodOptions, "/fetch", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestFetch_MissingURL(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{`{}`, `{"url": "  "}`, `{invalid json}`, ``} {
		w := do(t, s, http.MethodPost, "/fetch", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, w.Code)
		}
		if msg := decodeError(t, w); msg != "URLが提供されていません。" {
			t.Errorf("body %q: unexpected error %q", body, msg)
		}
	}
}

func TestFetch_Success(t *testing.T) {
	s := newTestServer(t, nil)
	upstream := newUpstream(t)

	w := do(t, s, http.MethodPost, "/fetch", `{"url": "`+upstream.URL+`/page"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}

	var resp FetchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.HTML != upstreamPage {
		t.Errorf("unexpected html: %q", resp.HTML)
	}
}

func TestFetch_Failure(t *testing.T) {
	s := newTestServer(t, nil)
	upstream := newUpstream(t)

	for _, target := range []string{upstream.URL + "/missing", "ftp://example.com/x", "not a url"} {
		w := do(t, s, http.MethodPost, "/fetch", `{"url": "`+target+`"}`)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected status 500, got %d", target, w.Code)
		}
		if msg := decodeError(t, w); msg != "URLの取得に失敗しました。" {
			t.Errorf("%s: unexpected error %q", target, msg)
		}
	}
}

func TestCheck_Source(t *testing.T) {
	s := newTestServer(t, nil)

	body, _ := json.Marshal(CheckRequest{
		Source:     upstreamPage,
		Email:      true,
		Checks:     []string{checks.IDTitle},
		References: &types.ReferenceValues{Title: "春の新商品"},
	})
	w := do(t, s, http.MethodPost, "/check", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var report types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(report.Entries))
	}
	if report.Entries[0].Status != types.StatusPass {
		t.Errorf("expected title to pass, got %+v", report.Entries[0])
	}
	if !report.Flags.Email {
		t.Error("expected email flag in report")
	}
}

func TestCheck_UsesStoredReferences(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPut, "/references", `{"title": "別のタイトル"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body, _ := json.Marshal(CheckRequest{Source: upstreamPage, Checks: []string{checks.IDTitle}})
	w = do(t, s, http.MethodPost, "/check", string(body))

	var report types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if entry, ok := report.Get(checks.IDTitle); !ok || entry.Status != types.StatusFail {
		t.Errorf("expected title to fail against the stored value, got %+v", entry)
	}
}

func TestCheck_URL(t *testing.T) {
	s := newTestServer(t, nil)
	upstream := newUpstream(t)

	body, _ := json.Marshal(CheckRequest{
		URL:        upstream.URL + "/page",
		Checks:     []string{checks.IDTitle},
		References: &types.ReferenceValues{Title: "春の新商品"},
	})
	w := do(t, s, http.MethodPost, "/check", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"pass"`) {
		t.Errorf("expected passing entry: %s", w.Body.String())
	}

}

func TestCheck_URLFetchFailure(t *testing.T) {
	s := newTestServer(t, nil)
	upstream := newUpstream(t)

	body, _ := json.Marshal(CheckRequest{URL: upstream.URL + "/missing", Email: true})
	w := do(t, s, http.MethodPost, "/check", string(body))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502 for a failed fetch, got %d: %s", w.Code, w.Body.String())
	}

	var report types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("expected only the fetch entry, got %+v", report.Entries)
	}
	entry := report.Entries[0]
	if entry.ID != executor.FetchEntryID || entry.Status != types.StatusError {
		t.Errorf("expected an error entry for the fetch, got %+v", entry)
	}
	if !strings.Contains(entry.Error, "404") {
		t.Errorf("expected the upstream status in the entry error, got %q", entry.Error)
	}
	if !report.Flags.Email || report.Passed() {
		t.Errorf("expected email flags and a non-passing report, got %+v", report)
	}
}

func TestCheck_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid`},
		{"neither source nor url", `{"email": true}`},
		{"both source and url", `{"source": "<p></p>", "url": "https://example.com"}`},
		{"unsupported url", `{"url": "file:///etc/passwd"}`},
		{"empty check id", `{"source": "<p></p>", "checks": [""]}`},
		{"unknown check id", `{"source": "<p></p>", "checks": ["nope"]}`},
		{"invalid references", `{"source": "<p></p>", "references": {"prod_cd": "商品"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/check", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			if decodeError(t, w) == "" {
				t.Error("expected error message in response")
			}
		})
	}
}

func TestListChecks(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/checks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Checks []CheckInfo `json:"checks"`
		Total  int         `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Total != len(checks.StandardDescriptors()) || len(resp.Checks) != resp.Total {
		t.Errorf("unexpected listing size: total=%d len=%d", resp.Total, len(resp.Checks))
	}
	if resp.Checks[0].ID != checks.IDTitle || resp.Checks[0].Variant != "any" {
		t.Errorf("unexpected first check: %+v", resp.Checks[0])
	}
}

func TestReferences_RoundTrip(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/references", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"prod_cd":""`) {
		t.Fatalf("expected empty defaults, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPut, "/references", `{"title": "件名", "preheader": "プリヘッダー", "prod_cd": "AB12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/references", "")
	var values types.ReferenceValues
	if err := json.Unmarshal(w.Body.Bytes(), &values); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	want := types.ReferenceValues{Title: "件名", Preheader: "プリヘッダー", ProductCode: "AB12"}
	if values != want {
		t.Errorf("expected %+v, got %+v", want, values)
	}
}

func TestReferences_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPut, "/references", `{"prod_cd": "商品コード"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	w = do(t, s, http.MethodPut, "/references", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &ratelimit.Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})

	w := do(t, s, http.MethodGet, "/checks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("expected rate limit header, got %q", w.Header().Get("X-RateLimit-Limit"))
	}

	w = do(t, s, http.MethodGet, "/checks", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on rejected requests")
	}

	// Health checks are never limited
	if w := do(t, s, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("expected health to bypass limits, got %d", w.Code)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request validation", &ErrValidation{Field: "url", Message: "bad"}, http.StatusBadRequest},
		{"unknown check", &executor.ConfigurationError{Message: "unknown check requested"}, http.StatusBadRequest},
		{"wrapped reference validation", errors.Join(errors.New("x"), &refstore.ValidationError{Message: "bad"}), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckRequest_JSON(t *testing.T) {
	var req CheckRequest
	if err := json.NewDecoder(bytes.NewBufferString(`{"source":"<p></p>","seac":true,"checks":["footer"]}`)).Decode(&req); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !req.SEAC || req.Email || len(req.Checks) != 1 || req.References != nil {
		t.Errorf("unexpected request: %+v", req)
	}
	if err := req.validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}
