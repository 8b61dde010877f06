package patterns

import (
	"regexp"
	"strings"
)

// Profile-page signal tables. Within each table the first entry that matches
// wins.
var (
	employeePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*(?:-\d{1,3}(?:,\d{3})*)?)\s*employees?`),
		regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)\s*followers`),
		regexp.MustCompile(`(?i)Size:\s*(\d{1,3}(?:,\d{3})*(?:-\d{1,3}(?:,\d{3})*)?)`),
	}

	websiteField = regexp.MustCompile(`"website":"(https?://[^"]+)"`)
	bareURL      = regexp.MustCompile(`https?://(?:www\.)?(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(?:/[^\s"'<>\\]*)?`)

	// IndustryKeywords is checked in order against the lower-cased source.
	IndustryKeywords = []string{
		"Technology", "Software", "Consulting", "Healthcare", "Finance",
		"Education", "Manufacturing", "Retail", "Real Estate", "Media",
	}

	jobTitleField = regexp.MustCompile(`"jobTitle":"([^"]+)"`)
	jobAriaLabel  = regexp.MustCompile(`aria-label="([^"]*(?:Engineer|Developer|Manager|Designer|Analyst|Specialist|Director|Lead)[^"]*)"`)
)

// ignoredHosts never count as an organization's own website.
var ignoredHosts = []string{
	"linkedin.com", "licdn.com", "w3.org", "schema.org",
	"googleapis.com", "gstatic.com", "google.com", "bing.com",
}

// EmployeeCount returns the first employee-count phrase in source with the
// " employees" suffix, or "" when none matches.
func EmployeeCount(source string) string {
	for _, re := range employeePatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			return m[1] + " employees"
		}
	}
	return ""
}

// Website returns the first candidate organization website in source. An
// embedded "website" JSON field is preferred over bare URLs.
func Website(source string) string {
	source = strings.ReplaceAll(source, `\/`, `/`)
	for _, m := range websiteField.FindAllStringSubmatch(source, -1) {
		if IsExternalWebsite(m[1]) {
			return m[1]
		}
	}
	for _, m := range bareURL.FindAllString(source, -1) {
		if IsExternalWebsite(m) {
			return m
		}
	}
	return ""
}

// IsExternalWebsite reports whether candidate does not point at the host
// platform or a static asset host.
func IsExternalWebsite(candidate string) bool {
	lower := strings.ToLower(candidate)
	if lower == "" {
		return false
	}
	for _, host := range ignoredHosts {
		if strings.Contains(lower, host) {
			return false
		}
	}
	return true
}

// IndustryHint returns the first industry keyword present in source.
func IndustryHint(source string) string {
	lower := strings.ToLower(source)
	for _, kw := range IndustryKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// CleanJobTitle strips call-to-action noise from a job card label.
func CleanJobTitle(s string) string {
	s = strings.ReplaceAll(s, "Apply now", "")
	return strings.Join(strings.Fields(s), " ")
}

// AcceptJobTitle reports whether s is a plausible job title.
func AcceptJobTitle(s string) bool {
	return len(s) > 3 && len(s) < 100
}

// JobTitlesFromSource extracts job titles embedded in page source, keeping at
// most limit distinct accepted titles.
func JobTitlesFromSource(source string, limit int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, re := range []*regexp.Regexp{jobTitleField, jobAriaLabel} {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			title := CleanJobTitle(m[1])
			if !AcceptJobTitle(title) {
				continue
			}
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			out = append(out, title)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
