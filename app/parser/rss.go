package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed/rss"
)

// parseRSS handles both RSS 2.0 and RSS 1.0/RDF documents. The dialects share
// a channel/item shape but differ in date semantics: RSS 1.0 entries carry no
// publication date and default to the current time, RSS 2.0 entries use an
// RFC-822-style date with a current-time fallback for unparsable values.
func (p *Parser) parseRSS(data []byte, dialect Dialect) Result {
	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return Result{Outcome: OutcomeInvalidData, Detail: "failed to read feed channel: " + err.Error()}
	}

	res := Result{
		Outcome: OutcomeSuccess,
		Title:   strings.TrimSpace(parsed.Title),
		Link:    strings.TrimSpace(parsed.Link),
	}

	for _, entry := range parsed.Items {
		if entry == nil || entry.Enclosure == nil || entry.Enclosure.URL == "" {
			// No usable media link: not a candidate, not an error.
			continue
		}
		item := Item{
			URL:         entry.Enclosure.URL,
			Title:       strings.TrimSpace(entry.Title),
			Description: entry.Description,
			PublishedAt: p.rssDate(entry.PubDate, dialect),
		}
		if item.Title == "" {
			item.Title = missingTitle
			item.Key = uuid.NewString()
			item.Malformed = true
		} else {
			item.Key = item.URL
		}
		res.Items = append(res.Items, item)
	}

	return res
}

func (p *Parser) rssDate(raw string, dialect Dialect) time.Time {
	if dialect == DialectRSS1 {
		return p.now()
	}
	if t, err := dateparse.ParseAny(strings.TrimSpace(raw)); err == nil {
		return t
	}
	return p.now()
}
