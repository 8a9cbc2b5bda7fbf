package checks

import (
	"context"
	"regexp"
	"strings"
)

const (
	msgUTMCampaign        = "・$$$utm_campaign$$$が存在します"
	msgFallbackTextAdd    = `・"※画像がうまく表示されない方はこちら"を追加してください。`
	msgFallbackTextRemove = `・"※画像がうまく表示されない方はこちら"を削除してください。`
	msgOpenTagPlacement   = "・開封タグの位置を確認してください"
	msgBodyMissing        = "・<body> タグが存在しません"
	msgOpenTagRemove      = "・開封タグは削除してください"
)

const (
	utmCampaignToken = "$$$utm_campaign$$$"
	fallbackText     = "※画像が"
)

const openTagExpr = `<custom\s+name=["']opencounter["']\s+type=["']tracking["']\s*/?>`

var (
	// A comment block that runs through </body> counts as the body start marker.
	bodyStartPattern = regexp.MustCompile(`(?i)<!--[\s\S]*?</body>|<body[^>]*>`)
	openTagPattern   = regexp.MustCompile(openTagExpr)
	openTagAnyCase   = regexp.MustCompile(`(?i)` + openTagExpr)
)

// CheckUTMCampaign rejects the unreplaced campaign placeholder.
func CheckUTMCampaign(_ context.Context, page *Page, _ Input) ([]string, error) {
	if strings.Contains(page.Source, utmCampaignToken) {
		return fail(msgUTMCampaign)
	}
	return pass()
}

// CheckFallbackText requires the "view in browser" line in email and forbids it on the web.
func CheckFallbackText(_ context.Context, page *Page, in Input) ([]string, error) {
	present := strings.Contains(page.Source, fallbackText)
	switch {
	case in.Flags.Email && !present:
		return fail(msgFallbackTextAdd)
	case !in.Flags.Email && present:
		return fail(msgFallbackTextRemove)
	}
	return pass()
}

// CheckMailOpenTag requires the open-tracking tag after the body start, ignoring comments.
func CheckMailOpenTag(_ context.Context, page *Page, _ Input) ([]string, error) {
	loc := bodyStartPattern.FindStringIndex(page.Source)
	if loc == nil {
		return fail(msgBodyMissing)
	}
	after := StripComments(page.Source[loc[1]:])
	if !openTagPattern.MatchString(after) {
		return fail(msgOpenTagPlacement)
	}
	return pass()
}

// CheckWebOpenTag forbids the open-tracking tag, commented out or not.
func CheckWebOpenTag(_ context.Context, page *Page, _ Input) ([]string, error) {
	if openTagAnyCase.MatchString(page.Source) {
		return fail(msgOpenTagRemove)
	}
	return pass()
}
