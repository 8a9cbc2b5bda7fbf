package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/markup-checker/internal/checks"
	"github.com/jonathan/markup-checker/internal/fetch"
	"github.com/jonathan/markup-checker/internal/refstore"
	"github.com/jonathan/markup-checker/internal/types"
)

// maxRequestBytes bounds request bodies; pasted sources can be large.
const maxRequestBytes = 16 << 20

// FetchRequest represents the request body for /fetch
type FetchRequest struct {
	URL string `json:"url"`
}

// FetchResponse represents the response for /fetch
type FetchResponse struct {
	HTML string `json:"html"`
}

// CheckRequest represents the request body for /check.
// Exactly one of Source and URL is required.
type CheckRequest struct {
	Source     string                 `json:"source,omitempty"`
	URL        string                 `json:"url,omitempty"`
	Email      bool                   `json:"email"`
	SEAC       bool                   `json:"seac"`
	Checks     []string               `json:"checks,omitempty"`
	References *types.ReferenceValues `json:"references,omitempty"` // Overrides the stored values
}

// CheckInfo describes one registered check
type CheckInfo struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

// handleFetch proxies a page fetch so browser clients can read cross-origin markup
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		s.errorResponse(w, http.StatusBadRequest, msgURLMissing)
		return
	}

	result, err := fetch.Page(r.Context(), req.URL, s.cfg.UseBrowser, &fetch.Options{Timeout: s.cfg.FetchTimeout}, s.logger)
	if err != nil {
		s.logger.Warn("Fetch failed", zap.String("url", req.URL), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	s.jsonResponse(w, http.StatusOK, FetchResponse{HTML: result.HTML})
}

// handleCheck runs the requested checks, or the channel's default battery
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx := r.Context()
	in := checks.Input{
		Flags:             types.ChannelFlags{Email: req.Email, SEAC: req.SEAC},
		Images:            s.images,
		FirstPartyDomains: s.cfg.FirstPartyDomains,
		ProbeTimeout:      s.cfg.ProbeTimeout,
		ProbeConcurrency:  s.cfg.ProbeConcurrency,
	}

	if req.References != nil {
		if err := req.References.Validate(); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid references: "+err.Error())
			return
		}
		in.References = *req.References
	} else {
		refs, err := refstore.Load(ctx, s.store)
		if err != nil {
			s.logger.Error("Failed to load reference values", zap.Error(err))
			s.errorResponse(w, http.StatusInternalServerError, "Failed to load reference values")
			return
		}
		in.References = refs
	}

	source := req.Source
	if req.URL != "" {
		result, err := fetch.Page(ctx, req.URL, s.cfg.UseBrowser, &fetch.Options{Timeout: s.cfg.FetchTimeout}, s.logger)
		if err != nil {
			s.logger.Warn("Fetch failed", zap.String("url", req.URL), zap.Error(err))
			s.jsonResponse(w, http.StatusBadGateway, s.executor.FetchFailed(in.Flags, err))
			return
		}
		source = result.HTML
		in.BaseURL = result.FinalURL
	}

	var (
		report *types.Report
		err    error
	)
	if len(req.Checks) > 0 {
		report, err = s.executor.RunIDs(ctx, req.Checks, source, in)
	} else {
		report, err = s.executor.RunDefault(ctx, source, in)
	}
	if report == nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if err != nil {
		// Failed checks are already error entries in the report
		s.logger.Warn("Check run finished with errors", zap.String("run_id", report.RunID), zap.Error(err))
	}

	s.jsonResponse(w, http.StatusOK, report)
}

func (req *CheckRequest) validate() error {
	hasSource := strings.TrimSpace(req.Source) != ""
	hasURL := strings.TrimSpace(req.URL) != ""
	switch {
	case hasSource && hasURL:
		return &ErrValidation{Field: "source", Message: "source and url are mutually exclusive"}
	case !hasSource && !hasURL:
		return &ErrValidation{Field: "source", Message: "either source or url is required"}
	}
	if hasURL {
		if _, err := fetch.ValidateURL(req.URL); err != nil {
			return &ErrValidation{Field: "url", Message: err.Error()}
		}
	}
	for _, id := range req.Checks {
		if strings.TrimSpace(id) == "" {
			return &ErrValidation{Field: "checks", Message: "check ids must not be empty"}
		}
	}
	return nil
}

// handleListChecks lists the registered checks in report order
func (s *Server) handleListChecks(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.executor.Registry().List()
	infos := make([]CheckInfo, 0, len(descriptors))
	for _, d := range descriptors {
		variant := d.Variant
		if variant == "" {
			variant = checks.VariantAny
		}
		infos = append(infos, CheckInfo{ID: d.ID, Label: d.Label, Variant: string(variant)})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"checks": infos, "total": len(infos)})
}

// handleGetReferences returns the stored reference values
func (s *Server) handleGetReferences(w http.ResponseWriter, r *http.Request) {
	values, err := refstore.Load(r.Context(), s.store)
	if err != nil {
		s.logger.Error("Failed to load reference values", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load reference values")
		return
	}
	s.jsonResponse(w, http.StatusOK, values)
}

// handlePutReferences replaces all three reference values
func (s *Server) handlePutReferences(w http.ResponseWriter, r *http.Request) {
	var values types.ReferenceValues
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&values); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := refstore.Save(r.Context(), s.store, values); err != nil {
		var validationErr *refstore.ValidationError
		if errors.As(err, &validationErr) {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Failed to save reference values", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save reference values")
		return
	}

	s.jsonResponse(w, http.StatusOK, values)
}
