// Package engine owns the feed collection and drives refresh, reconciliation
// and download orchestration. All state mutation happens on a single owner
// goroutine; callbacks from fetch and download workers are delivered as
// messages into its inbox and processed one at a time in arrival order.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ewin66/PodPuppy/app/database"
	"github.com/ewin66/PodPuppy/app/feed"
	"github.com/ewin66/PodPuppy/app/parser"
)

// Options tunes engine behavior from configuration.
type Options struct {
	// DownloadDir is the base directory feed folders resolve against.
	DownloadDir string
	// RefreshInterval is the period between automatic refresh sweeps over all
	// sync-enabled feeds. Zero disables the sweep.
	RefreshInterval time.Duration
	// DownloadOnlyLatest applies the latest-only visibility rule on the first
	// refresh of dynamically added feeds.
	DownloadOnlyLatest bool
}

type Engine struct {
	store    database.Store
	fetcher  Fetcher
	pool     Pool
	playlist PlaylistWriter
	notifier Notifier
	storage  Storage
	parser   *parser.Parser
	opts     Options
	now      func() time.Time

	ops  chan func()
	quit chan struct{}

	// Owner-goroutine state. Never touched off the ops loop after Run starts.
	feeds        []*feed.Feed
	index        map[string]*feed.Feed
	refreshes    map[string]context.CancelFunc
	nextPriority int
}

func New(store database.Store, f Fetcher, pool Pool, pw PlaylistWriter, notifier Notifier, storage Storage, opts Options) *Engine {
	return &Engine{
		store:        store,
		fetcher:      f,
		pool:         pool,
		playlist:     pw,
		notifier:     notifier,
		storage:      storage,
		parser:       parser.NewParser(),
		opts:         opts,
		now:          time.Now,
		ops:          make(chan func(), 512),
		quit:         make(chan struct{}),
		index:        make(map[string]*feed.Feed),
		refreshes:    make(map[string]context.CancelFunc),
		nextPriority: 1,
	}
}

// SetPool installs the worker pool. The pool's callbacks point back at the
// engine, so it is constructed second and installed here before Load/Run.
func (e *Engine) SetPool(p Pool) {
	e.pool = p
}

// Load restores persisted state and runs the recovery pass: a worker cannot
// resume a partial transfer across restarts, so anything recorded in progress
// resets to pending before normal operation resumes. Call before Run.
func (e *Engine) Load() error {
	feeds, nextPriority, err := e.store.LoadAll()
	if err != nil {
		return err
	}

	for _, f := range feeds {
		for _, it := range f.Items() {
			if it.Status == feed.ItemDownloading {
				it.Status = feed.ItemPending
			}
		}
		switch f.Status {
		case feed.StatusRefreshing, feed.StatusRedirecting, feed.StatusDownloading:
			f.Status = f.StatusFromItems()
		}
		e.index[f.URL] = f
	}

	e.feeds = feeds
	e.nextPriority = nextPriority
	slog.Info("Feed collection loaded", "feeds", len(feeds), "next_priority", nextPriority)
	return nil
}

// Run processes the inbox until ctx is canceled. It also owns the periodic
// refresh sweep.
func (e *Engine) Run(ctx context.Context) {
	var tick <-chan time.Time
	if e.opts.RefreshInterval > 0 {
		ticker := time.NewTicker(e.opts.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			close(e.quit)
			e.cancelAllRefreshes()
			e.save()
			return
		case fn := <-e.ops:
			fn()
		case <-tick:
			e.refreshAllDue()
		}
	}
}

// post delivers fn to the owner goroutine. It reports false once the engine
// has shut down.
func (e *Engine) post(fn func()) bool {
	select {
	case <-e.quit:
		return false
	case e.ops <- fn:
		return true
	}
}

// postWait delivers fn and blocks until the owner goroutine has run it.
func (e *Engine) postWait(fn func()) bool {
	done := make(chan struct{})
	if !e.post(func() {
		fn()
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-e.quit:
		return false
	}
}

func (e *Engine) save() {
	if err := e.store.SaveAll(e.feeds); err != nil {
		slog.Error("Failed to persist feed collection", "error", err)
	}
}

func (e *Engine) cancelAllRefreshes() {
	for _, cancel := range e.refreshes {
		cancel()
	}
}

func (e *Engine) refreshAllDue() {
	for _, f := range e.feeds {
		if f.SyncEnabled {
			e.refreshFeed(f)
		}
	}
}

func (e *Engine) reconcileOptions() feed.ReconcileOptions {
	return feed.ReconcileOptions{OnlyLatestForDynamic: e.opts.DownloadOnlyLatest}
}

func (e *Engine) baseDir() string {
	return e.opts.DownloadDir
}
