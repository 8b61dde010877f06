// Package patterns holds the text heuristics applied to page content: contact
// scanning, profile signals, detail classification and domain derivation.
// Nothing here performs I/O.
package patterns

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

const (
	maxEmails = 3
	maxPhones = 2
	minPhone  = 10
)

// DefaultEmailSkip lists address fragments that never identify a contact.
var DefaultEmailSkip = []string{"noreply", "no-reply", "support", "help", "info@linkedin"}

var (
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		regexp.MustCompile(`(?i)mailto:([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,})`),
	}
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s-]?\d{1,4}[\s-]?\d{1,4}[\s-]?\d{1,9}`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.]?\d{4}`),
		regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`),
		regexp.MustCompile(`\+\d{1,3}\s?\d{3,4}\s?\d{3,4}\s?\d{3,4}`),
	}
	phoneNoise = regexp.MustCompile(`[^\d+()-]`)
)

// Contacts are the addresses and numbers found in a text.
type Contacts struct {
	Emails []string
	Phones []string
}

// Empty reports whether nothing was found.
func (c Contacts) Empty() bool {
	return len(c.Emails) == 0 && len(c.Phones) == 0
}

// Merge returns the sorted union of c and other.
func (c Contacts) Merge(other Contacts) Contacts {
	return Contacts{
		Emails: distinctSorted(append(append([]string(nil), c.Emails...), other.Emails...)),
		Phones: distinctSorted(append(append([]string(nil), c.Phones...), other.Phones...)),
	}
}

// EmailField formats up to three addresses for a record.
func (c Contacts) EmailField() string {
	return joinCapped(c.Emails, maxEmails, extractor.SentinelEmail)
}

// PhoneField formats up to two numbers for a record.
func (c Contacts) PhoneField() string {
	return joinCapped(c.Phones, maxPhones, extractor.SentinelPhone)
}

// Scanner extracts contacts with a fixed pattern set.
type Scanner struct {
	skip []string
}

// NewScanner builds a Scanner. A nil skip list uses DefaultEmailSkip.
func NewScanner(skip []string) *Scanner {
	if skip == nil {
		skip = DefaultEmailSkip
	}
	lowered := make([]string, 0, len(skip))
	for _, s := range skip {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return &Scanner{skip: lowered}
}

// Scan returns the distinct contacts in raw. Results are sorted, so scanning
// the same text always yields the same value.
func (s *Scanner) Scan(raw string) Contacts {
	var emails, phones []string
	for _, re := range emailPatterns {
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			addr := m[0]
			if len(m) > 1 {
				addr = m[1]
			}
			if !strings.Contains(addr, "@") || !strings.Contains(addr, ".") || s.skipped(addr) {
				continue
			}
			emails = append(emails, addr)
		}
	}
	for _, re := range phonePatterns {
		for _, m := range re.FindAllString(raw, -1) {
			if len(phoneNoise.ReplaceAllString(m, "")) < minPhone {
				continue
			}
			phones = append(phones, strings.TrimSpace(m))
		}
	}
	return Contacts{Emails: distinctSorted(emails), Phones: distinctSorted(phones)}
}

func (s *Scanner) skipped(addr string) bool {
	lower := strings.ToLower(addr)
	for _, frag := range s.skip {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func distinctSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func joinCapped(values []string, limit int, sentinel string) string {
	if len(values) == 0 {
		return sentinel
	}
	if len(values) > limit {
		values = values[:limit]
	}
	return strings.Join(values, "; ")
}
