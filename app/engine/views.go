package engine

import (
	"time"

	"github.com/ewin66/PodPuppy/app/feed"
)

// FeedView is a read-only snapshot of one feed, safe to hand across
// goroutines. Deleted tombstones are hidden from the item list, matching
// their presentation semantics.
type FeedView struct {
	URL          string     `json:"url"`
	Link         string     `json:"link,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Folder       string     `json:"folder,omitempty"`
	ArchiveMode  string     `json:"archive_mode"`
	SyncEnabled  bool       `json:"sync_enabled"`
	Dynamic      bool       `json:"dynamic"`
	Priority     int        `json:"priority"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ItemCount    int        `json:"item_count"`
	Items        []ItemView `json:"items,omitempty"`
}

type ItemView struct {
	Key             string     `json:"key"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	PercentComplete int        `json:"percent_complete,omitempty"`
	PublishedAt     time.Time  `json:"published_at"`
	DownloadedAt    *time.Time `json:"downloaded_at,omitempty"`
}

// Stats summarizes the collection for the stats endpoint.
type Stats struct {
	Feeds          int `json:"feeds"`
	Items          int `json:"items"`
	CompletedItems int `json:"completed_items"`
	PendingItems   int `json:"pending_items"`
	ErrorItems     int `json:"error_items"`
}

// Feeds returns snapshot views of every feed, in priority order.
func (e *Engine) Feeds() []FeedView {
	var views []FeedView
	e.postWait(func() {
		views = make([]FeedView, 0, len(e.feeds))
		for _, f := range e.feeds {
			views = append(views, viewOf(f, false))
		}
	})
	return views
}

// FeedDetail returns one feed's view including its visible items.
func (e *Engine) FeedDetail(url string) (FeedView, bool) {
	var view FeedView
	found := false
	e.postWait(func() {
		if f := e.index[url]; f != nil {
			view = viewOf(f, true)
			found = true
		}
	})
	return view, found
}

func (e *Engine) Stats() Stats {
	var s Stats
	e.postWait(func() {
		s.Feeds = len(e.feeds)
		for _, f := range e.feeds {
			for _, it := range f.Items() {
				s.Items++
				switch it.Status {
				case feed.ItemComplete:
					s.CompletedItems++
				case feed.ItemPending, feed.ItemDownloading:
					s.PendingItems++
				case feed.ItemError:
					s.ErrorItems++
				}
			}
		}
	})
	return s
}

func viewOf(f *feed.Feed, withItems bool) FeedView {
	v := FeedView{
		URL:          f.URL,
		Link:         f.Link,
		Title:        f.Title,
		Description:  f.Description,
		Folder:       f.Folder,
		ArchiveMode:  string(f.ArchiveMode),
		SyncEnabled:  f.SyncEnabled,
		Dynamic:      f.DynamicallyAdded,
		Priority:     f.Priority,
		Status:       string(f.Status),
		ErrorMessage: f.ErrorMessage,
	}
	for _, it := range f.Items() {
		if it.Status == feed.ItemDeleted {
			continue
		}
		v.ItemCount++
		if withItems {
			v.Items = append(v.Items, ItemView{
				Key:             it.Key,
				URL:             it.URL,
				Title:           it.Title,
				Status:          string(it.Status),
				PercentComplete: it.PercentComplete,
				PublishedAt:     it.PublishedAt,
				DownloadedAt:    it.DownloadedAt,
			})
		}
	}
	return v
}
