package fetch

import (
	"net/url"
	"strings"
)

// Site classifies a URL relative to the first-party domains.
type Site string

const (
	// SiteFirstParty is a URL served from one of the first-party hosts
	SiteFirstParty Site = "first_party"
	// SiteCrossSite is an absolute http(s) URL on any other host
	SiteCrossSite Site = "cross_site"
	// SiteUnknown is a relative, non-http or unparseable URL
	SiteUnknown Site = "unknown"
)

// DefaultFirstPartyDomains are the hosts treated as same-site for image checks.
var DefaultFirstPartyDomains = []string{
	"www.shizensyokuhin.jp",
	"shizensyokuhin.jp",
	"www.s-shizensyokuhin.jp",
	"s-shizensyokuhin.jp",
}

// DetectSite classifies rawURL. Hosts are compared exactly, ignoring case;
// subdomains of a first-party host are cross-site. Nil firstParty falls back
// to DefaultFirstPartyDomains.
func DetectSite(rawURL string, firstParty []string) Site {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return SiteUnknown
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return SiteUnknown
	}

	if firstParty == nil {
		firstParty = DefaultFirstPartyDomains
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range firstParty {
		if host == strings.ToLower(domain) {
			return SiteFirstParty
		}
	}
	return SiteCrossSite
}

// IsCrossSite reports whether rawURL points outside the first-party domains.
func IsCrossSite(rawURL string, firstParty []string) bool {
	return DetectSite(rawURL, firstParty) == SiteCrossSite
}
