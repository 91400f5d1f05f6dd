package parser

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"
)

const (
	nsAtom  = "http://www.w3.org/2005/Atom"
	nsRSS1  = "http://purl.org/rss/1.0/"
	nsRDF   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsXHTML = "http://www.w3.org/1999/xhtml"
)

// missingTitle is the placeholder assigned to structurally present but
// individually malformed entries.
const missingTitle = "???"

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Run detects the document dialect and dispatches to the matching parse path.
func (p *Parser) Run(data []byte) Result {
	switch Detect(data) {
	case DialectOPML:
		return Result{Outcome: OutcomeIsOPML, Detail: "document is an OPML subscription list"}
	case DialectAtom:
		return p.parseAtom(data)
	case DialectRSS1:
		return p.parseRSS(data, DialectRSS1)
	case DialectRSS2:
		return p.parseRSS(data, DialectRSS2)
	case DialectHTMLDiscovery:
		return discoverFeedLink(data)
	default:
		return Result{Outcome: OutcomeInvalidData, Detail: "document is not a recognized feed format"}
	}
}

// Detect inspects the root element and selects a parse path. Detection order:
// OPML, Atom namespace, RSS 1.0/RDF namespace, XHTML page, plain rss 2.0.
func Detect(data []byte) Dialect {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return DialectUnknown
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case strings.EqualFold(el.Name.Local, "opml"):
			return DialectOPML
		case el.Name.Space == nsAtom:
			return DialectAtom
		case el.Name.Space == nsRSS1 || el.Name.Space == nsRDF:
			return DialectRSS1
		case el.Name.Space == nsXHTML || strings.EqualFold(el.Name.Local, "html"):
			return DialectHTMLDiscovery
		case el.Name.Space == "" && el.Name.Local == "rss":
			for _, attr := range el.Attr {
				if attr.Name.Local == "version" && strings.TrimSpace(attr.Value) == "2.0" {
					return DialectRSS2
				}
			}
			return DialectUnknown
		default:
			return DialectUnknown
		}
	}
}
