package parser

import "time"

// Outcome classifies one parse attempt.
type Outcome int

const (
	// OutcomeSuccess carries the normalized feed head and item candidates.
	OutcomeSuccess Outcome = iota
	// OutcomeInvalidData means the document is not any supported feed dialect,
	// or a supported document was structurally unreadable.
	OutcomeInvalidData
	// OutcomeRedirect means the document was an HTML page referencing a feed;
	// the caller should re-fetch at RedirectURL.
	OutcomeRedirect
	// OutcomeIsOPML means the document is an OPML subscription list, not a
	// subscribable feed. The caller may offer converting it into a bulk import.
	OutcomeIsOPML
)

// Dialect identifies the parse path selected by detection.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectRSS2
	DialectRSS1
	DialectAtom
	DialectHTMLDiscovery
	DialectOPML
)

// Item is one normalized entry candidate. Malformed entries (a usable media
// link but no title) keep a slot with a synthesized key distinct from their
// URL so they never collide; entries without a media link are dropped before
// this point.
type Item struct {
	Key         string
	URL         string
	Title       string
	Description string
	PublishedAt time.Time
	Malformed   bool
}

// Result is the outcome of parsing one fetched document.
type Result struct {
	Outcome     Outcome
	Title       string
	Link        string
	Items       []Item
	RedirectURL string
	Detail      string
}

// CandidateURLs lists every media URL seen in this parse, including ones
// belonging to malformed entries. Retention evaluates existing items against
// this set.
func (r Result) CandidateURLs() []string {
	urls := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if it.URL != "" {
			urls = append(urls, it.URL)
		}
	}
	return urls
}
