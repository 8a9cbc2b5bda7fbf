package checks

import (
	"context"
	"regexp"
	"strings"
)

const (
	msgTitleMismatch     = "・タイトルに誤りがあります"
	msgPreheaderNoID     = `・id="preheader"を追加してください。`
	msgPreheaderUnset    = "・プリヘッダーが設定されていません"
	msgPreheaderMismatch = "・プリヘッダーを確認してください。"
	msgPreheaderRemove   = "・プリヘッダーを削除してください"
	msgNoIndexMissing    = "・noindexの記述がありません"
	msgBodyCloseMissing  = "・</body> タグが存在しません"
	msgGTMPlacement      = "・GTMの場所を確認してください"
	msgFavicon           = "・faviconの記述を確認してください"
)

// Favicon paths for the standard and SEAC variants.
const (
	FaviconPath     = "/excludes/dmlite/favicon.ico"
	SEACFaviconPath = "/excludes/dmlite/seac/img/common/favicon.ico"
)

var (
	titlePattern           = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	preheaderIDPattern     = regexp.MustCompile(`(?i)id\s*=\s*["']preheader["']`)
	preheaderTagPattern    = regexp.MustCompile(`(?is)id\s*=\s*["']preheader["'][^>]*>(.*?)</[^>]+>`)
	preheaderMarkerPattern = regexp.MustCompile(`(?i)<!--\s*▼\s*プリヘッダー\s*▼\s*-->`)
	noIndexPattern         = regexp.MustCompile(`(?i)<meta\s+name=["']robots["']\s+content=["']noindex["']`)
	bodyClosePattern       = regexp.MustCompile(`(?i)</body>`)
	gtmMarkerPattern       = regexp.MustCompile(`(?i)<!--\s*Google Tag Manager\s*-->`)
	faviconPattern         = faviconLinkPattern(FaviconPath)
	seacFaviconPattern     = faviconLinkPattern(SEACFaviconPath)
)

func faviconLinkPattern(path string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<link\s+rel=["']shortcut icon["']\s+href=["']` + regexp.QuoteMeta(path) + `["']\s*/?>`)
}

func fail(messages ...string) ([]string, error) {
	return messages, nil
}

func pass() ([]string, error) {
	return nil, nil
}

// CheckTitle compares the first <title> against the reference title exactly.
func CheckTitle(_ context.Context, page *Page, in Input) ([]string, error) {
	pageTitle := ""
	if m := titlePattern.FindStringSubmatch(page.Source); m != nil {
		pageTitle = m[1]
	}
	if strings.ContainsAny(pageTitle, "<>") || pageTitle != in.References.Title {
		return fail(msgTitleMismatch)
	}
	return pass()
}

// CheckMailPreheader requires an id="preheader" element whose text matches the reference.
func CheckMailPreheader(_ context.Context, page *Page, in Input) ([]string, error) {
	if !preheaderIDPattern.MatchString(page.Source) {
		return fail(msgPreheaderNoID)
	}

	expected := strings.TrimSpace(in.References.Preheader)
	if expected == "" {
		return fail(msgPreheaderUnset)
	}

	text := ""
	if m := preheaderTagPattern.FindStringSubmatch(page.Source); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if strings.ContainsAny(text, "<>") || text != expected {
		return fail(msgPreheaderMismatch)
	}
	return pass()
}

// CheckWebPreheader rejects the preheader marker comment on web pages.
func CheckWebPreheader(_ context.Context, page *Page, _ Input) ([]string, error) {
	if preheaderMarkerPattern.MatchString(page.Source) {
		return fail(msgPreheaderRemove)
	}
	return pass()
}

// CheckNoIndex requires a robots noindex meta tag outside of comments.
func CheckNoIndex(_ context.Context, page *Page, _ Input) ([]string, error) {
	if noIndexPattern.MatchString(page.Uncommented()) {
		return pass()
	}
	return fail(msgNoIndexMissing)
}

// CheckGTM requires the Google Tag Manager marker before the first </body>.
func CheckGTM(_ context.Context, page *Page, _ Input) ([]string, error) {
	loc := bodyClosePattern.FindStringIndex(page.Source)
	if loc == nil {
		return fail(msgBodyCloseMissing)
	}
	if gtmMarkerPattern.MatchString(page.Source[:loc[0]]) {
		return pass()
	}
	return fail(msgGTMPlacement)
}

// CheckFavicon requires the variant's favicon link outside of comments.
func CheckFavicon(_ context.Context, page *Page, in Input) ([]string, error) {
	pattern := faviconPattern
	if in.Flags.SEAC {
		pattern = seacFaviconPattern
	}
	if pattern.MatchString(page.Uncommented()) {
		return pass()
	}
	return fail(msgFavicon)
}
