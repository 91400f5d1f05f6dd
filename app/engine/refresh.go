package engine

import (
	"context"
	"log/slog"

	"github.com/ewin66/PodPuppy/app/feed"
	"github.com/ewin66/PodPuppy/app/fetcher"
	"github.com/ewin66/PodPuppy/app/parser"
)

// refreshFeed starts a refresh for one feed. A refresh already in flight makes
// this a no-op, and a removed feed never refreshes again. A download in
// progress is stopped first so the worker is not writing into a folder that is
// about to be reconciled away.
func (e *Engine) refreshFeed(f *feed.Feed) {
	switch f.Status {
	case feed.StatusRefreshing, feed.StatusRedirecting, feed.StatusRemoved:
		return
	}

	if f.DownloadingItem() != nil {
		e.pool.Cancel(f.URL)
	}

	f.Status = feed.StatusRefreshing
	e.spawnFetch(f)
}

// spawnFetch launches the fetch+parse goroutine for a feed currently in
// refreshing or redirecting state. The goroutine owns no shared state; its
// result comes back through the inbox.
func (e *Engine) spawnFetch(f *feed.Feed) {
	ctx, cancel := context.WithCancel(context.Background())
	e.refreshes[f.URL] = cancel

	url := f.URL
	go func() {
		fres := e.fetcher.Fetch(ctx, url)
		var pres parser.Result
		if fres.Status == fetcher.StatusSuccess {
			pres = e.parser.Run(fres.Data)
		}
		e.post(func() { e.completeRefresh(url, fres, pres) })
	}()
}

func (e *Engine) completeRefresh(url string, fres fetcher.Result, pres parser.Result) {
	f := e.index[url]
	if f == nil {
		return
	}
	if cancel, ok := e.refreshes[url]; ok {
		cancel()
		delete(e.refreshes, url)
	}
	if f.Status != feed.StatusRefreshing && f.Status != feed.StatusRedirecting {
		return
	}

	wasFirst := f.NeverRefreshed

	switch fres.Status {
	case fetcher.StatusCanceled:
		// Items untouched; settle the aggregate from existing state.
		f.Status = f.StatusFromItems()
		return

	case fetcher.StatusUnableToConnect:
		e.setRefreshError(f, wasFirst, fres.Detail)
		return

	case fetcher.StatusRedirect:
		e.redirectFeed(f, fres.RedirectURL)
		return
	}

	switch pres.Outcome {
	case parser.OutcomeIsOPML:
		e.setRefreshError(f, false, pres.Detail)
		e.notifier.OPMLDetected(url)

	case parser.OutcomeRedirect:
		e.redirectFeed(f, pres.RedirectURL)

	case parser.OutcomeInvalidData:
		e.setRefreshError(f, wasFirst, pres.Detail)

	case parser.OutcomeSuccess:
		candidates := make([]feed.Candidate, 0, len(pres.Items))
		for _, it := range pres.Items {
			candidates = append(candidates, feed.Candidate{
				Key:         it.Key,
				URL:         it.URL,
				Title:       it.Title,
				Description: it.Description,
				PublishedAt: it.PublishedAt,
				Malformed:   it.Malformed,
			})
		}

		f.Status = feed.StatusPending
		f.Reconcile(pres.Title, pres.Link, candidates, e.now(), e.storage, e.reconcileOptions())
		f.RecomputeStatus()

		slog.Info("Feed refreshed", "feed", f.URL, "items", len(f.Items()), "status", string(f.Status))

		e.playlist.Refresh(f)
		e.save()
		if f.SyncEnabled {
			e.startNextDownload(f)
		}
	}
}

// redirectFeed adopts the moved source URL and immediately re-issues the
// refresh. Redirecting is not a terminal state for the caller; the chain ends
// only when a fetch at some address produces a real outcome.
func (e *Engine) redirectFeed(f *feed.Feed, newURL string) {
	if newURL == "" || newURL == f.URL {
		e.setRefreshError(f, false, "redirect without a usable target")
		return
	}
	slog.Info("Feed source moved", "from", f.URL, "to", newURL)

	delete(e.index, f.URL)
	f.URL = newURL
	e.index[newURL] = f
	f.Status = feed.StatusRedirecting
	e.save()
	e.spawnFetch(f)
}

func (e *Engine) setRefreshError(f *feed.Feed, notify bool, message string) {
	f.Status = feed.StatusError
	f.ErrorMessage = message
	e.save()
	if notify && !f.DynamicallyAdded {
		// Interactively added feeds surface their very first failure as a
		// blocking notification; bulk imports stay quiet.
		e.notifier.FirstRefreshFailed(f.URL, message)
	}
}

// cancelRefresh stops an in-flight fetch. The fetch goroutine observes the
// cancellation and reports a canceled outcome, which settles the status.
func (e *Engine) cancelRefresh(f *feed.Feed) {
	if cancel, ok := e.refreshes[f.URL]; ok {
		cancel()
	}
}
