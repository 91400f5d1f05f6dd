package engine

import (
	"log/slog"

	"github.com/ewin66/PodPuppy/app/downloader"
	"github.com/ewin66/PodPuppy/app/feed"
)

// startNextDownload offers the feed's first pending item to the worker pool.
// If the pool is busy the feed reverts to pending; if there is nothing left to
// download the aggregate settles to complete or complete-with-errors.
func (e *Engine) startNextDownload(f *feed.Feed) {
	switch f.Status {
	case feed.StatusRemoved, feed.StatusRefreshing, feed.StatusRedirecting:
		return
	}
	if f.DownloadingItem() != nil {
		return
	}

	next := f.NextPending()
	if next == nil {
		f.Status = f.StatusFromItems()
		return
	}

	job := downloader.Job{
		FeedURL:   f.URL,
		ItemKey:   next.Key,
		SourceURL: next.URL,
		TargetDir: f.FolderPath(e.baseDir()),
		Filename:  f.ItemFilename(next),
		Overwrite: f.Tags.OverwriteExisting,
	}

	if e.pool.TryAcquire(job) {
		next.Status = feed.ItemDownloading
		next.PercentComplete = 0
		f.Status = feed.StatusDownloading
	} else {
		f.Status = feed.StatusPending
	}
}

// OnDownloadProgress is installed as the pool's progress callback.
func (e *Engine) OnDownloadProgress(job downloader.Job, percent int) {
	e.post(func() {
		if f := e.index[job.FeedURL]; f != nil {
			if it := f.ItemByKey(job.ItemKey); it != nil && it.Status == feed.ItemDownloading {
				it.PercentComplete = percent
			}
		}
	})
}

// OnDownloadDone is installed as the pool's completion callback. It marshals
// onto the owner goroutine before touching feed state.
func (e *Engine) OnDownloadDone(job downloader.Job, outcome downloader.Outcome, err error) {
	e.post(func() { e.completeDownload(job, outcome, err) })
}

func (e *Engine) completeDownload(job downloader.Job, outcome downloader.Outcome, err error) {
	f := e.index[job.FeedURL]
	if f == nil {
		return
	}
	it := f.ItemByKey(job.ItemKey)

	switch outcome {
	case downloader.OutcomeCompleted:
		if it != nil {
			it.MarkComplete(e.now())
		}
		slog.Info("Download complete", "feed", f.URL, "item", job.ItemKey)
		f.RecomputeStatus()
		e.playlist.Refresh(f)
		e.save()
		e.startNextDownload(f)

	case downloader.OutcomeCanceled:
		// The item may already have been settled by whoever canceled; only an
		// item still marked downloading reverts to pending.
		if it != nil && it.Status == feed.ItemDownloading {
			it.Status = feed.ItemPending
		}
		f.RecomputeStatus()

	case downloader.OutcomeFailed:
		if it != nil && it.Status == feed.ItemDownloading {
			it.Status = feed.ItemError
		}
		if err != nil {
			slog.Warn("Download failed", "feed", f.URL, "item", job.ItemKey, "error", err)
		}
		f.RecomputeStatus()
		e.save()
		// Nudge the feed so the pool can try another item.
		e.startNextDownload(f)
	}
}
