package patterns

import (
	"net/url"
	"strings"
)

// DeriveDomain returns the lower-cased host of website without a leading
// "www.", or "" when website is not a usable URL.
func DeriveDomain(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	return host
}

// NormalizeWebsite prefixes a scheme when website lacks one.
func NormalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" || strings.HasPrefix(website, "http://") || strings.HasPrefix(website, "https://") {
		return website
	}
	return "https://" + website
}
