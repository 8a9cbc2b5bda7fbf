package checks

import (
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/markup-checker/internal/fetch"
	"github.com/jonathan/markup-checker/internal/types"
)

// Page is an immutable page source shared by every check in a run.
// Derived views (DOM, comment-free source) are computed once on first use.
type Page struct {
	Source string

	docOnce sync.Once
	doc     *goquery.Document
	docErr  error

	stripOnce   sync.Once
	uncommented string
}

// NewPage wraps a page source.
func NewPage(source string) *Page {
	return &Page{Source: source}
}

// Document parses the source into a DOM. Parsing happens once per page.
func (p *Page) Document() (*goquery.Document, error) {
	p.docOnce.Do(func() {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Source))
		if err != nil {
			p.docErr = &ParseError{Message: "failed to parse page source", Cause: err}
			return
		}
		p.doc = doc
	})
	return p.doc, p.docErr
}

// Uncommented returns the source with every HTML comment removed.
func (p *Page) Uncommented() string {
	p.stripOnce.Do(func() {
		p.uncommented = StripComments(p.Source)
	})
	return p.uncommented
}

// ImageLoader resolves whether an image URL is reachable.
type ImageLoader = fetch.ImageLoader

// Input carries everything a check may read besides the page itself.
// Checks never consult any other state.
type Input struct {
	References types.ReferenceValues
	Flags      types.ChannelFlags

	// BaseURL resolves relative image sources; empty when the source was pasted.
	BaseURL string

	Images ImageLoader
	// FirstPartyDomains overrides fetch.DefaultFirstPartyDomains when non-nil.
	FirstPartyDomains []string
	ProbeTimeout      time.Duration
	ProbeConcurrency  int
}

// DefaultProbeTimeout bounds a single image load or probe.
const DefaultProbeTimeout = 10 * time.Second

// DefaultProbeConcurrency caps simultaneous image requests per run.
const DefaultProbeConcurrency = 8
