package parser

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// discoverFeedLink handles the XHTML fallback: the fetched URL pointed at a
// web page rather than a feed, so look for an advertised feed reference and
// redirect the caller there.
func discoverFeedLink(data []byte) Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Result{Outcome: OutcomeInvalidData, Detail: "failed to read HTML page: " + err.Error()}
	}

	var discovered string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		linkType := strings.ToLower(sel.AttrOr("type", ""))
		if !strings.Contains(linkType, "rss") && !strings.Contains(linkType, "atom") {
			return true
		}
		if href, ok := sel.Attr("href"); ok && href != "" {
			discovered = href
			return false
		}
		return true
	})

	if discovered == "" {
		return Result{Outcome: OutcomeInvalidData, Detail: "HTML page does not reference a feed"}
	}
	return Result{Outcome: OutcomeRedirect, RedirectURL: discovered}
}
