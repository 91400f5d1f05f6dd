package feed

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pattern tokens understood by ExpandTemplate:
//
//	%n  feed title
//	%t  item title
//	%d  item publication date (2006-01-02)
//	%u  basename of the item URL, without extension

// ExpandTemplate substitutes pattern tokens for the given feed/item pair.
func (f *Feed) ExpandTemplate(pattern string, it *Item) string {
	r := strings.NewReplacer(
		"%n", f.Title,
		"%t", it.Title,
		"%d", it.PublishedAt.Format("2006-01-02"),
		"%u", strings.TrimSuffix(urlBasename(it.URL), path.Ext(urlBasename(it.URL))),
	)
	return r.Replace(pattern)
}

// ItemFilename derives the local filename for a downloaded item from the
// feed's filename pattern, keeping the extension of the source URL. An empty
// pattern falls back to the URL basename.
func (f *Feed) ItemFilename(it *Item) string {
	base := urlBasename(it.URL)
	pattern := f.Tags.FilenamePattern
	if pattern == "" {
		if base == "" {
			return SanitizeFilename(it.Key)
		}
		return SanitizeFilename(base)
	}
	name := SanitizeFilename(f.ExpandTemplate(pattern, it))
	if name == "" {
		name = SanitizeFilename(base)
	}
	if ext := path.Ext(base); ext != "" && !strings.HasSuffix(name, ext) {
		name += ext
	}
	return name
}

// FolderPath resolves the feed's destination folder against the configured
// base directory. Absolute folders are used as-is.
func (f *Feed) FolderPath(base string) string {
	folder := f.Folder
	if folder == "" {
		folder = SanitizeFilename(f.Title)
	}
	if folder == "" {
		folder = SanitizeFilename(f.URL)
	}
	if filepath.IsAbs(folder) {
		return filepath.Clean(folder)
	}
	return filepath.Join(base, folder)
}

// ItemPath is the full local path an item downloads to.
func (f *Feed) ItemPath(base string, it *Item) string {
	return filepath.Join(f.FolderPath(base), f.ItemFilename(it))
}

func urlBasename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	return path.Base(u.Path)
}

var diacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename folds diacritics away and strips characters that are
// hostile to at least one common filesystem.
func SanitizeFilename(s string) string {
	if folded, _, err := transform.String(diacritics, s); err == nil {
		s = folded
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
