package checks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/markup-checker/internal/fetch"
)

// IDImageLinks is the id of the image link check; its messages are sorted.
const IDImageLinks = "image_links"

const (
	msgImageEmptySrc   = "・画像%dのsrc属性が空です。"
	msgImageBroken     = "・画像%d（URL: %s）がリンク切れです。"
	msgImageUnverified = "・画像%d（URL: %s）を確認できませんでした。"
)

type imageOutcome int

const (
	imageOK imageOutcome = iota
	imageBroken
	imageUnverified
)

// CheckImageLinks verifies every <img> has a src that loads. Cross-site
// images are additionally HEAD-probed. Every request is bounded by the
// probe timeout; an image that does not answer in time is reported as
// unverified rather than passed.
func CheckImageLinks(ctx context.Context, page *Page, in Input) ([]string, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	images := doc.Find("img")
	if images.Length() == 0 {
		return nil, nil
	}

	var (
		mu         sync.Mutex
		messages   []string
		unverified int
	)
	record := func(msg string, isUnverified bool) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, msg)
		if isUnverified {
			unverified++
		}
	}

	limit := in.ProbeConcurrency
	if limit <= 0 {
		limit = DefaultProbeConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)

	images.Each(func(i int, img *goquery.Selection) {
		index := i + 1
		src, _ := img.Attr("src")
		if strings.TrimSpace(src) == "" {
			record(fmt.Sprintf(msgImageEmptySrc, index), false)
			return
		}

		if isInlineImage(src) {
			return
		}
		target, ok := resolveImageURL(src, in.BaseURL)
		if !ok {
			record(fmt.Sprintf(msgImageUnverified, index, src), true)
			return
		}

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("image %d probe panicked: %v\n%s", index, r, debug.Stack())
				}
			}()

			switch probeImage(ctx, in, target) {
			case imageBroken:
				record(fmt.Sprintf(msgImageBroken, index, src), false)
			case imageUnverified:
				record(fmt.Sprintf(msgImageUnverified, index, src), true)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if unverified > 0 {
		return messages, &UnverifiedError{CheckID: IDImageLinks, Count: unverified}
	}
	return messages, nil
}

// probeImage loads the image and, for cross-site sources, sends a HEAD probe.
func probeImage(ctx context.Context, in Input, target string) imageOutcome {
	if in.Images == nil {
		return imageUnverified
	}

	timeout := in.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	attempt := func(fn func(context.Context, string) error) imageOutcome {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := fn(probeCtx, target)
		switch {
		case err == nil:
			return imageOK
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), probeCtx.Err() != nil:
			return imageUnverified
		default:
			return imageBroken
		}
	}

	if outcome := attempt(in.Images.Load); outcome != imageOK {
		return outcome
	}
	if fetch.IsCrossSite(target, in.FirstPartyDomains) {
		return attempt(in.Images.Head)
	}
	return imageOK
}

// isInlineImage reports whether src embeds the image as a data URI.
func isInlineImage(src string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(src)), "data:")
}

// resolveImageURL turns a src attribute into an absolute http(s) URL.
// A relative source with no usable base URL cannot be resolved.
func resolveImageURL(src, baseURL string) (string, bool) {
	src = strings.TrimSpace(src)

	ref, err := url.Parse(src)
	if err != nil {
		return src, true
	}
	if ref.IsAbs() {
		return ref.String(), true
	}
	if strings.HasPrefix(src, "//") {
		ref.Scheme = "https"
		return ref.String(), true
	}
	if baseURL == "" {
		return "", false
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
