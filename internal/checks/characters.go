package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/width"
)

const (
	msgDeviceChars       = "・機種依存文字が含まれています: %s"
	msgFullWidthURL      = "・URLに全角文字が含まれています: %s"
	msgDoubleEscapedAmp  = "・&amp;amp;が含まれています"
	msgFullWidthAmpFound = "・全角の＆が含まれています"
)

const (
	doubleEscapedAmp = "&amp;amp;"
	fullWidthAmp     = "＆"
)

// Shift_JIS lead bytes of the vendor extension rows: NEC special characters
// (row 13), NEC-selected IBM extensions and IBM extensions.
var vendorLeadBytes = map[byte]bool{
	0x87: true,
	0xED: true,
	0xEE: true,
	0xFA: true,
	0xFB: true,
	0xFC: true,
}

var anchorHrefPattern = regexp.MustCompile(`(?is)<a\s[^>]*?\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// CheckDeviceChars lists every character outside the safe set: ASCII plus
// JIS X 0208 as encoded in Shift_JIS, excluding vendor extension rows and
// half-width katakana.
func CheckDeviceChars(_ context.Context, page *Page, _ Input) ([]string, error) {
	found := DeviceDependentChars(page.Source)
	if len(found) == 0 {
		return pass()
	}
	return fail(fmt.Sprintf(msgDeviceChars, strings.Join(found, "、")))
}

// DeviceDependentChars returns the distinct unsafe characters in order of appearance.
func DeviceDependentChars(src string) []string {
	enc := japanese.ShiftJIS.NewEncoder()
	seen := make(map[rune]bool)
	var out []string
	for _, r := range src {
		if r < utf8.RuneSelf || seen[r] {
			continue
		}
		if isDeviceDependent(r, enc) {
			seen[r] = true
			out = append(out, string(r))
		}
	}
	return out
}

func isDeviceDependent(r rune, enc *encoding.Encoder) bool {
	if r == utf8.RuneError {
		return true
	}
	if width.LookupRune(r).Kind() == width.EastAsianHalfwidth {
		return true
	}
	encoded, err := enc.String(string(r))
	if err != nil || encoded == "" {
		return true
	}
	return vendorLeadBytes[encoded[0]]
}

// CheckURLWidth rejects anchor hrefs containing anything but printable ASCII.
func CheckURLWidth(_ context.Context, page *Page, _ Input) ([]string, error) {
	var messages []string
	for _, m := range anchorHrefPattern.FindAllStringSubmatch(page.Source, -1) {
		href := m[1]
		if href == "" {
			href = m[2]
		}
		if isPrintableASCII(href) {
			continue
		}
		messages = append(messages, fmt.Sprintf(msgFullWidthURL, href))
	}
	return messages, nil
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// CheckAmpersand rejects double-escaped and full-width ampersands. Both may fire.
func CheckAmpersand(_ context.Context, page *Page, _ Input) ([]string, error) {
	var messages []string
	if strings.Contains(page.Source, doubleEscapedAmp) {
		messages = append(messages, msgDoubleEscapedAmp)
	}
	if strings.Contains(page.Source, fullWidthAmp) {
		messages = append(messages, msgFullWidthAmpFound)
	}
	return messages, nil
}
