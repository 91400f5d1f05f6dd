package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ewin66/PodPuppy/app/feed"
	"github.com/ewin66/PodPuppy/app/opml"
)

// SubscribeOptions carries optional per-feed settings for a new subscription.
type SubscribeOptions struct {
	Dynamic     bool
	Folder      string
	ArchiveMode string
	Title       string
	SyncEnabled *bool
}

// Subscribe adds a feed and immediately triggers its first refresh.
// Subscribing to an already-known URL is a no-op.
func (e *Engine) Subscribe(url string, opts SubscribeOptions) {
	e.post(func() { e.subscribe(url, opts) })
}

func (e *Engine) subscribe(url string, opts SubscribeOptions) {
	if url == "" || e.index[url] != nil {
		return
	}

	f := feed.New(url)
	f.Priority = e.nextPriority
	e.nextPriority++
	f.DynamicallyAdded = opts.Dynamic
	f.Folder = opts.Folder
	f.Title = opts.Title
	if opts.ArchiveMode != "" {
		f.ArchiveMode = feed.ParseArchiveMode(opts.ArchiveMode)
	}
	if opts.SyncEnabled != nil {
		f.SyncEnabled = *opts.SyncEnabled
	}

	e.feeds = append(e.feeds, f)
	e.index[url] = f
	slog.Info("Feed subscribed", "feed", url, "dynamic", opts.Dynamic)
	e.save()
	e.refreshFeed(f)
}

// Unsubscribe removes a feed, transitioning it through the terminal removed
// state first so no further downloads start. Downloaded files go too when
// deleteFiles is set.
func (e *Engine) Unsubscribe(url string, deleteFiles bool) {
	e.post(func() {
		f := e.index[url]
		if f == nil {
			return
		}

		e.cancelRefresh(f)
		e.pool.Cancel(f.URL)
		f.Status = feed.StatusRemoved

		if deleteFiles {
			if err := e.storage.RemoveFeedFolder(f); err != nil {
				slog.Warn("Failed to remove feed folder", "feed", url, "error", err)
			}
		}

		delete(e.index, url)
		kept := e.feeds[:0]
		for _, other := range e.feeds {
			if other != f {
				kept = append(kept, other)
			}
		}
		e.feeds = kept
		slog.Info("Feed unsubscribed", "feed", url)
		e.save()
	})
}

// Refresh triggers a refresh for one feed. No-op while one is in flight.
func (e *Engine) Refresh(url string) {
	e.post(func() {
		if f := e.index[url]; f != nil {
			e.refreshFeed(f)
		}
	})
}

// RefreshAll triggers a refresh for every sync-enabled feed.
func (e *Engine) RefreshAll() {
	e.post(func() { e.refreshAllDue() })
}

// CancelRefresh cancels an in-flight refresh for a feed.
func (e *Engine) CancelRefresh(url string) {
	e.post(func() {
		if f := e.index[url]; f != nil {
			e.cancelRefresh(f)
		}
	})
}

// StopDownload cancels the feed's in-flight download, if any.
func (e *Engine) StopDownload(url string) {
	e.post(func() { e.pool.Cancel(url) })
}

// StartDownloads nudges a feed to begin downloading its pending items.
func (e *Engine) StartDownloads(url string) {
	e.post(func() {
		if f := e.index[url]; f != nil {
			e.startNextDownload(f)
		}
	})
}

// SetItemSkipped toggles an item between pending and skip. Only items in one
// of those two states move; a completed or downloading item is left alone.
func (e *Engine) SetItemSkipped(url, key string, skipped bool) {
	e.post(func() {
		f := e.index[url]
		if f == nil {
			return
		}
		it := f.ItemByKey(key)
		if it == nil {
			return
		}
		switch {
		case skipped && it.Status == feed.ItemPending:
			it.Status = feed.ItemSkip
		case !skipped && it.Status == feed.ItemSkip:
			it.Status = feed.ItemPending
		default:
			return
		}
		f.RecomputeStatus()
		e.playlist.Refresh(f)
		e.save()
	})
}

// DeleteItemDownload deletes an item's downloaded file and tombstones the
// record so the episode is not fetched again while the source still lists it.
func (e *Engine) DeleteItemDownload(url, key string) {
	e.post(func() {
		f := e.index[url]
		if f == nil {
			return
		}
		it := f.ItemByKey(key)
		if it == nil || it.Status == feed.ItemDownloading {
			return
		}
		if err := e.storage.RemoveItemFile(f, it); err != nil {
			slog.Warn("Failed to remove item file", "feed", url, "item", key, "error", err)
		}
		it.Status = feed.ItemDeleted
		f.RecomputeStatus()
		e.playlist.Refresh(f)
		e.save()
	})
}

// ImportOPML subscribes every feed referenced by an OPML document as a
// dynamic add. This is the conversion offered when a subscription URL turns
// out to be an OPML list.
func (e *Engine) ImportOPML(r io.Reader) (int, error) {
	entries, err := opml.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("failed to import OPML: %w", err)
	}
	for _, entry := range entries {
		e.Subscribe(entry.URL, SubscribeOptions{Dynamic: true, Title: entry.Title})
	}
	return len(entries), nil
}

// ImportSubscriptions subscribes every entry from the subscriptions seed file
// as a dynamic add.
func (e *Engine) ImportSubscriptions(entries []feed.SubscriptionEntry) {
	for _, entry := range entries {
		e.Subscribe(entry.URL, SubscribeOptions{
			Dynamic:     true,
			Folder:      entry.Folder,
			ArchiveMode: entry.ArchiveMode,
			SyncEnabled: entry.Sync,
		})
	}
}
