package engine

import (
	"context"

	"github.com/ewin66/PodPuppy/app/downloader"
	"github.com/ewin66/PodPuppy/app/feed"
	"github.com/ewin66/PodPuppy/app/fetcher"
)

// Fetcher retrieves raw feed documents. Implemented by fetcher.Fetcher;
// replaced by stubs in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

// Pool is the worker-pool collaborator contract: a non-blocking offer that
// either claims a worker or reports busy, plus cooperative cancellation keyed
// by feed.
type Pool interface {
	TryAcquire(job downloader.Job) bool
	Cancel(feedURL string)
}

// PlaylistWriter regenerates a feed's playlist after a completion or
// visibility change.
type PlaylistWriter interface {
	Refresh(f *feed.Feed)
}

// Notifier is the interactive collaborator surface. Only first-refresh
// failures and distinguished outcomes propagate here; everything else stays
// on status fields.
type Notifier interface {
	FirstRefreshFailed(feedURL, message string)
	OPMLDetected(feedURL string)
	PlaylistWriteFailed(path string, err error)
}
