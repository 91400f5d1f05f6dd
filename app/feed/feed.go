package feed

import (
	"time"
)

// FileRemover deletes the downloaded media for an item before its record is
// dropped during reconciliation. Implemented by the engine's disk storage.
type FileRemover interface {
	RemoveItemFile(f *Feed, it *Item) error
}

// Feed is a subscribed content source. It owns an ordered item collection
// keyed by item key; insertion order is the order of first appearance in the
// source feed and is preserved across refreshes.
type Feed struct {
	URL         string
	Link        string
	Title       string
	Description string
	Folder      string

	ArchiveMode      ArchiveMode
	SyncEnabled      bool
	DynamicallyAdded bool
	Priority         int
	Tags             TagSettings

	Status         Status
	ErrorMessage   string
	NeverRefreshed bool

	items []*Item
	index map[string]int
}

// New creates a freshly subscribed feed.
func New(url string) *Feed {
	return &Feed{
		URL:            url,
		ArchiveMode:    ArchiveKeep,
		SyncEnabled:    true,
		Status:         StatusPending,
		NeverRefreshed: true,
		index:          make(map[string]int),
	}
}

// Items returns the item collection in order. The returned slice is shared;
// callers on the owner task may mutate item fields but not the collection.
func (f *Feed) Items() []*Item {
	return f.items
}

// ItemByKey looks up an item by its reconciliation key.
func (f *Feed) ItemByKey(key string) *Item {
	if i, ok := f.index[key]; ok {
		return f.items[i]
	}
	return nil
}

// DownloadingItem returns the item currently downloading, if any. At most one
// item per feed may be downloading at any instant.
func (f *Feed) DownloadingItem() *Item {
	for _, it := range f.items {
		if it.Status == ItemDownloading {
			return it
		}
	}
	return nil
}

// NextPending returns the first pending item in collection order.
func (f *Feed) NextPending() *Item {
	for _, it := range f.items {
		if it.Status == ItemPending {
			return it
		}
	}
	return nil
}

// AppendItem adds an item at the end of the collection.
func (f *Feed) AppendItem(it *Item) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	f.index[it.Key] = len(f.items)
	f.items = append(f.items, it)
}

// ReplaceItems swaps in a restored item collection, used when loading
// persisted state.
func (f *Feed) ReplaceItems(items []*Item) {
	f.items = nil
	f.index = make(map[string]int)
	for _, it := range items {
		f.AppendItem(it)
	}
}

func (f *Feed) removeItems(remove map[string]bool) {
	if len(remove) == 0 {
		return
	}
	kept := f.items[:0]
	for _, it := range f.items {
		if !remove[it.Key] {
			kept = append(kept, it)
		}
	}
	f.items = kept
	f.index = make(map[string]int)
	for i, it := range f.items {
		f.index[it.Key] = i
	}
}

// StatusFromItems derives the aggregate status from item state alone. Skip,
// deleted and complete items count as terminal success; error items as
// terminal failure.
func (f *Feed) StatusFromItems() Status {
	hasError := false
	for _, it := range f.items {
		switch it.Status {
		case ItemDownloading:
			return StatusDownloading
		case ItemPending:
			return StatusPending
		case ItemError:
			hasError = true
		}
	}
	if hasError {
		return StatusCompleteWithErrors
	}
	return StatusComplete
}

// RecomputeStatus sets the aggregate status from item state. Removed is
// terminal and refresh states are held by the refresh machinery, so those are
// never overwritten here.
func (f *Feed) RecomputeStatus() {
	switch f.Status {
	case StatusRemoved, StatusRefreshing, StatusRedirecting:
		return
	}
	f.Status = f.StatusFromItems()
}

// ReconcileOptions tunes per-refresh reconciliation behavior.
type ReconcileOptions struct {
	// OnlyLatestForDynamic hides every item except the latest-published one on
	// the first refresh of a dynamically added feed.
	OnlyLatestForDynamic bool
}

// Reconcile merges one successful parse into the feed: retention runs against
// the current items, remaining error items are reset, then new candidates are
// appended in source order. Channel-level title and link are adopted only on
// the first-ever refresh so a user-adjusted title is never overwritten.
// The previous collection is not touched by the caller until a parse attempt
// has fully succeeded, so a failed refresh never corrupts it.
func (f *Feed) Reconcile(title, link string, candidates []Candidate, now time.Time, files FileRemover, opts ReconcileOptions) {
	firstRefresh := f.NeverRefreshed
	if firstRefresh {
		f.Title = title
		f.Link = link
	}

	candidateURLs := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.URL != "" {
			candidateURLs[c.URL] = true
		}
	}

	removals := ItemsToRemove(f.items, f.ArchiveMode, candidateURLs, now)
	drop := make(map[string]bool)
	for _, it := range removals {
		if files != nil {
			// Resource errors here are reported by the collaborator, never fatal.
			_ = files.RemoveItemFile(f, it)
		}
		if candidateURLs[it.URL] {
			// Still listed by the source: keep a tombstone so a future refresh
			// does not re-download it.
			it.Status = ItemDeleted
		} else {
			drop[it.Key] = true
		}
	}
	f.removeItems(drop)

	for _, it := range f.items {
		if it.Status == ItemError {
			it.Status = ItemPending
		}
	}

	for _, c := range candidates {
		if !c.Malformed {
			if existing := f.ItemByKey(c.Key); existing != nil {
				continue
			}
		}
		status := ItemPending
		if c.Malformed {
			status = ItemError
		}
		f.AppendItem(&Item{
			Key:         c.Key,
			URL:         c.URL,
			Title:       c.Title,
			Description: c.Description,
			PublishedAt: c.PublishedAt,
			Status:      status,
		})
	}

	if firstRefresh {
		if f.Tags == (TagSettings{}) {
			f.Tags = DefaultTagSettings()
		}
		if f.DynamicallyAdded && opts.OnlyLatestForDynamic && len(f.items) > 0 {
			f.hideAllButLatest()
		}
		f.NeverRefreshed = false
	}

	f.ErrorMessage = ""
}

// hideAllButLatest marks every item except the one with the latest publication
// date as skipped, leaving a single visible, downloadable item. Applied only
// when configuration requests it for dynamically added feeds.
func (f *Feed) hideAllButLatest() {
	latest := f.items[0]
	for _, it := range f.items[1:] {
		if it.PublishedAt.After(latest.PublishedAt) {
			latest = it
		}
	}
	for _, it := range f.items {
		if it != latest && it.Status == ItemPending {
			it.Status = ItemSkip
		}
	}
}
