package extractor

import (
	"strings"
	"time"
)

// Sentinels substituted for fields that could not be resolved.
const (
	SentinelName        = "Company name not found"
	SentinelDescription = "Description not available"
	SentinelJobPosts    = "No current job openings found"
	SentinelEmployees   = "Employee count not available"
	SentinelIndustry    = "Industry not specified"
	SentinelLocation    = "Location not available"
	SentinelWebsite     = "Website not found"
	SentinelDomain      = "Domain not found"
	SentinelPhone       = "Not found"
	SentinelEmail       = "Not found"
	SentinelFounders    = "No founders found"
	SentinelEngineering = "No engineering heads found"
)

// MaxJobPosts caps the number of job titles kept on a record.
const MaxJobPosts = 5

// ErrorMarkerPrefix prefixes the description of a record whose extraction
// failed before the name could be resolved.
const ErrorMarkerPrefix = "Error: "

// Headers is the fixed sink column order.
var Headers = []string{
	"Company Name",
	"Description/Overview",
	"Job Posts",
	"Number of Employees",
	"Industry",
	"Location",
	"Website",
	"Domain URL",
	"Phone Number",
	"Email Contact",
	"Company URL",
	"Founders",
	"Engineering Heads",
}

// Record is the normalized output for one Target.
type Record struct {
	Name             string   `json:"company_name"`
	Description      string   `json:"description"`
	JobPosts         []string `json:"job_posts"`
	Employees        string   `json:"employees"`
	Industry         string   `json:"industry"`
	Location         string   `json:"location"`
	Website          string   `json:"website"`
	Domain           string   `json:"domain_url"`
	Phones           string   `json:"phone_number"`
	Emails           string   `json:"email_contact"`
	SourceURL        string   `json:"url"`
	Founders         string   `json:"founders"`
	EngineeringHeads string   `json:"engineering_heads"`

	FounderCandidates     []PersonCandidate `json:"founder_candidates,omitempty"`
	EngineeringCandidates []PersonCandidate `json:"engineering_candidates,omitempty"`
	RunID                 string            `json:"run_id,omitempty"`
	ExtractedAt           time.Time         `json:"extracted_at"`
	Err                   string            `json:"error,omitempty"`
}

// ErrorRecord builds the record emitted when extraction fails before the
// organization name is resolved. All other fields are sentinels.
func ErrorRecord(target Target, err error) Record {
	rec := Record{SourceURL: target.String()}
	if err != nil {
		rec.Err = err.Error()
		rec.Description = ErrorMarkerPrefix + err.Error()
	}
	return rec.Finalize()
}

// Failed reports whether the record carries an error marker.
func (r Record) Failed() bool {
	return r.Err != ""
}

// JobPostsField joins the job titles for the sink, capped at MaxJobPosts.
func (r Record) JobPostsField() string {
	if len(r.JobPosts) == 0 {
		return ""
	}
	posts := r.JobPosts
	if len(posts) > MaxJobPosts {
		posts = posts[:MaxJobPosts]
	}
	return strings.Join(posts, "; ")
}

// Finalize returns a copy of the record with every blank field replaced by
// its sentinel.
func (r Record) Finalize() Record {
	r.Name = orSentinel(r.Name, SentinelName)
	r.Description = orSentinel(r.Description, SentinelDescription)
	switch {
	case len(r.JobPosts) == 0:
		r.JobPosts = []string{SentinelJobPosts}
	case len(r.JobPosts) > MaxJobPosts:
		r.JobPosts = append([]string(nil), r.JobPosts[:MaxJobPosts]...)
	}
	r.Employees = orSentinel(r.Employees, SentinelEmployees)
	r.Industry = orSentinel(r.Industry, SentinelIndustry)
	r.Location = orSentinel(r.Location, SentinelLocation)
	r.Website = orSentinel(r.Website, SentinelWebsite)
	r.Domain = orSentinel(r.Domain, SentinelDomain)
	r.Phones = orSentinel(r.Phones, SentinelPhone)
	r.Emails = orSentinel(r.Emails, SentinelEmail)
	r.Founders = orSentinel(r.Founders, SentinelFounders)
	r.EngineeringHeads = orSentinel(r.EngineeringHeads, SentinelEngineering)
	return r
}

// Row renders the record in Headers order. Every cell is non-empty.
func (r Record) Row() []string {
	return []string{
		orSentinel(r.Name, SentinelName),
		orSentinel(r.Description, SentinelDescription),
		orSentinel(r.JobPostsField(), SentinelJobPosts),
		orSentinel(r.Employees, SentinelEmployees),
		orSentinel(r.Industry, SentinelIndustry),
		orSentinel(r.Location, SentinelLocation),
		orSentinel(r.Website, SentinelWebsite),
		orSentinel(r.Domain, SentinelDomain),
		orSentinel(r.Phones, SentinelPhone),
		orSentinel(r.Emails, SentinelEmail),
		orSentinel(r.SourceURL, ProfileURLNotFound),
		orSentinel(r.Founders, SentinelFounders),
		orSentinel(r.EngineeringHeads, SentinelEngineering),
	}
}

func orSentinel(value, sentinel string) string {
	if strings.TrimSpace(value) == "" {
		return sentinel
	}
	return value
}
