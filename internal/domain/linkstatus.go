package domain

import "time"

// LinkStatus is the outcome of a link health check.
type LinkStatus string

const (
	// Verified working.
	LinkOK           LinkStatus = "ok"
	LinkKnownWorking LinkStatus = "known_working"

	// Working but unverified; surfaced as uncertain.
	LinkCORSOK         LinkStatus = "cors_ok"
	LinkAssumedWorking LinkStatus = "assumed_working"

	// Broken.
	LinkTimeout     LinkStatus = "timeout"
	LinkDomainError LinkStatus = "domain_error"
	LinkInvalidURL  LinkStatus = "invalid_url"
	LinkSuspicious  LinkStatus = "suspicious"
	LinkUncommonTLD LinkStatus = "uncommon_tld"
	LinkFetchError  LinkStatus = "fetch_error"
)

// Working reports whether the status counts as a live link.
func (s LinkStatus) Working() bool {
	switch s {
	case LinkOK, LinkKnownWorking, LinkCORSOK, LinkAssumedWorking:
		return true
	default:
		return false
	}
}

// LinkVerdict is the three-way grouping shown to users.
type LinkVerdict string

const (
	VerdictWorking   LinkVerdict = "working"
	VerdictUncertain LinkVerdict = "uncertain"
	VerdictBroken    LinkVerdict = "broken"
)

// LinkCheckResult is the classification of one bookmark. Derived, never persisted.
type LinkCheckResult struct {
	BookmarkID string     `json:"bookmarkId"`
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
	Status     LinkStatus `json:"status"`
	Working    bool       `json:"working"`
	Error      string     `json:"error,omitempty"`
	Method     string     `json:"method,omitempty"`
	HTTPStatus int        `json:"httpStatus,omitempty"`
	CheckedAt  time.Time  `json:"checkedAt"`
}

// Verdict regroups the working flag and the status into broken,
// uncertain or working.
func (r LinkCheckResult) Verdict() LinkVerdict {
	switch {
	case !r.Working:
		return VerdictBroken
	case r.Status == LinkAssumedWorking || r.Status == LinkCORSOK:
		return VerdictUncertain
	default:
		return VerdictWorking
	}
}

// LinkSummary counts results per verdict.
type LinkSummary struct {
	Total     int `json:"total"`
	Working   int `json:"working"`
	Uncertain int `json:"uncertain"`
	Broken    int `json:"broken"`
}

// SummarizeLinks counts rs per verdict.
func SummarizeLinks(rs []LinkCheckResult) LinkSummary {
	s := LinkSummary{Total: len(rs)}
	for _, r := range rs {
		switch r.Verdict() {
		case VerdictWorking:
			s.Working++
		case VerdictUncertain:
			s.Uncertain++
		default:
			s.Broken++
		}
	}
	return s
}

// BrokenBookmarkIDs returns the bookmark ids of the non-working results.
func BrokenBookmarkIDs(rs []LinkCheckResult) []string {
	ids := make([]string, 0)
	for _, r := range rs {
		if !r.Working {
			ids = append(ids, r.BookmarkID)
		}
	}
	return ids
}
