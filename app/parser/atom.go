package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed/atom"
)

func (p *Parser) parseAtom(data []byte) Result {
	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return Result{Outcome: OutcomeInvalidData, Detail: "failed to read feed head: " + err.Error()}
	}

	res := Result{
		Outcome: OutcomeSuccess,
		Title:   strings.TrimSpace(parsed.Title),
		Link:    atomAlternateLink(parsed.Links),
	}

	for _, entry := range parsed.Entries {
		if entry == nil {
			continue
		}
		mediaURL := atomEnclosureLink(entry.Links)
		if mediaURL == "" {
			continue
		}
		item := Item{
			URL:         mediaURL,
			Title:       strings.TrimSpace(entry.Title),
			Description: entry.Summary,
			PublishedAt: p.atomDate(entry.Published, entry.Updated),
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

// atomDate prefers published, falls back to updated, falls back to now.
func (p *Parser) atomDate(published, updated string) time.Time {
	if t, err := dateparse.ParseAny(strings.TrimSpace(published)); err == nil {
		return t
	}
	if t, err := dateparse.ParseAny(strings.TrimSpace(updated)); err == nil {
		return t
	}
	return p.now()
}

func atomAlternateLink(links []*atom.Link) string {
	for _, l := range links {
		if l != nil && (l.Rel == "alternate" || l.Rel == "") {
			return l.Href
		}
	}
	for _, l := range links {
		if l != nil {
			return l.Href
		}
	}
	return ""
}

func atomEnclosureLink(links []*atom.Link) string {
	for _, l := range links {
		if l != nil && l.Rel == "enclosure" && l.Href != "" {
			return l.Href
		}
	}
	return ""
}
