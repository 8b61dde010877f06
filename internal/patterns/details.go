package patterns

import "strings"

// Details are the about-page facts recovered from definition cells.
type Details struct {
	Industry  string
	Location  string
	Employees string
	Website   string
}

var (
	industryStopWords  = []string{"employees", "people", "city", "country", "street", "avenue"}
	locationIndicators = []string{"headquarters", "hq", "located", "based", "city", "country"}
	staffWords         = []string{"employee", "people", "staff", "team size"}
)

const maxIndustryWords = 8

// Classify assigns each item to the blank fields it fits. Fields that are
// already set are kept; the first qualifying item wins per field, and one item
// may fill several fields.
func (d Details) Classify(items []string) Details {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lower := strings.ToLower(item)

		if d.Industry == "" && len(strings.Fields(item)) <= maxIndustryWords && !containsAny(lower, industryStopWords) {
			d.Industry = item
		}
		if d.Location == "" && containsAny(lower, locationIndicators) {
			d.Location = item
		}
		if d.Employees == "" && containsAny(lower, staffWords) {
			d.Employees = item
		}
		if d.Website == "" && (strings.Contains(item, "http") || strings.Contains(item, ".com") || strings.Contains(item, ".org")) &&
			!strings.Contains(lower, "linkedin.com") {
			d.Website = item
		}
	}
	return d
}

// ClassifyDetails classifies items into an empty Details.
func ClassifyDetails(items []string) Details {
	return Details{}.Classify(items)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
