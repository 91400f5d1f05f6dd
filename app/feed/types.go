package feed

import (
	"time"
)

type ItemStatus string

const (
	ItemPending     ItemStatus = "pending"
	ItemDownloading ItemStatus = "downloading"
	ItemComplete    ItemStatus = "complete"
	ItemError       ItemStatus = "error"
	ItemSkip        ItemStatus = "skip"
	ItemDeleted     ItemStatus = "deleted"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusDownloading        Status = "downloading"
	StatusComplete           Status = "complete"
	StatusCompleteWithErrors Status = "complete_with_errors"
	StatusRefreshing         Status = "refreshing"
	StatusRedirecting        Status = "redirecting"
	StatusError              Status = "error"
	StatusRemoved            Status = "removed"
)

type ArchiveMode string

const (
	ArchiveKeep                ArchiveMode = "keep"
	ArchiveDeleteAfterOneWeek  ArchiveMode = "delete_after_one_week"
	ArchiveDeleteAfterOneMonth ArchiveMode = "delete_after_one_month"
	ArchiveMatchFeed           ArchiveMode = "match_feed"
	ArchiveKeepLatest          ArchiveMode = "keep_latest"
)

// ParseArchiveMode maps a stored string to an archive mode, defaulting to keep.
func ParseArchiveMode(s string) ArchiveMode {
	switch ArchiveMode(s) {
	case ArchiveDeleteAfterOneWeek, ArchiveDeleteAfterOneMonth, ArchiveMatchFeed, ArchiveKeepLatest:
		return ArchiveMode(s)
	default:
		return ArchiveKeep
	}
}

// Item is one downloadable episode belonging to a feed. Key is the
// reconciliation key: the enclosure URL for well-formed entries, a synthesized
// identifier for malformed ones.
type Item struct {
	Key             string
	URL             string
	Title           string
	Description     string
	PublishedAt     time.Time
	DownloadedAt    *time.Time
	Status          ItemStatus
	PercentComplete int
}

// MarkComplete transitions the item into complete. The downloaded date is set
// only on the transition and never cleared afterwards.
func (it *Item) MarkComplete(now time.Time) {
	if it.Status != ItemComplete {
		t := now
		it.DownloadedAt = &t
	}
	it.Status = ItemComplete
	it.PercentComplete = 100
}

// TagSettings holds per-feed tagging preferences. Template tokens are expanded
// by naming.go; actual tag embedding happens in an external post-processor.
type TagSettings struct {
	AlbumTemplate  string
	GenreTemplate  string
	ArtistTemplate string
	TitleTemplate  string

	AlbumEnabled  bool
	GenreEnabled  bool
	ArtistEnabled bool
	TitleEnabled  bool

	FilenamePattern   string
	OverwriteExisting bool
}

// DefaultTagSettings returns the template set applied on a feed's first
// successful refresh when the user has not configured one.
func DefaultTagSettings() TagSettings {
	return TagSettings{
		AlbumTemplate:   "%n",
		GenreTemplate:   "Podcast",
		ArtistTemplate:  "%n",
		TitleTemplate:   "%t",
		AlbumEnabled:    true,
		GenreEnabled:    true,
		ArtistEnabled:   true,
		TitleEnabled:    true,
		FilenamePattern: "%t",
	}
}

// Candidate is a normalized entry produced by one parse of the source feed,
// ready for reconciliation against the feed's current items.
type Candidate struct {
	Key         string
	URL         string
	Title       string
	Description string
	PublishedAt time.Time
	Malformed   bool
}
