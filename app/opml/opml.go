// Package opml reads OPML subscription lists for bulk feed import.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type document struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Body    body     `xml:"body"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	Outlines []outline `xml:"outline,omitempty"`
}

// Entry is one feed discovered in an OPML document.
type Entry struct {
	Title string
	URL   string
}

// Parse flattens an OPML document into its feed entries, walking nested
// outline folders depth-first.
func Parse(r io.Reader) ([]Entry, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode OPML: %w", err)
	}

	var entries []Entry
	var walk func(outlines []outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				title := o.Title
				if title == "" {
					title = o.Text
				}
				entries = append(entries, Entry{Title: strings.TrimSpace(title), URL: o.XMLURL})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)
	return entries, nil
}
