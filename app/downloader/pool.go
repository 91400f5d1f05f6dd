// Package downloader runs the bounded worker pool that transfers episode
// media to disk. The engine offers one item at a time per feed; the pool
// either accepts it onto a free worker or reports busy.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCanceled
	OutcomeFailed
)

// Job identifies one item transfer. FeedURL doubles as the cancellation key:
// at most one job per feed is ever in flight.
type Job struct {
	FeedURL   string
	ItemKey   string
	SourceURL string
	TargetDir string
	Filename  string
	Overwrite bool
}

// CompletionFunc is invoked from a worker goroutine when a job ends. The
// receiver must marshal back onto its owner task before touching shared state.
type CompletionFunc func(job Job, outcome Outcome, err error)

// ProgressFunc reports transfer progress in whole percents.
type ProgressFunc func(job Job, percent int)

type Pool struct {
	transfer   *transferClient
	slots      chan struct{}
	onDone     CompletionFunc
	onProgress ProgressFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func NewPool(workers int, userAgent string, onProgress ProgressFunc, onDone CompletionFunc) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		transfer:   newTransferClient(userAgent),
		slots:      make(chan struct{}, workers),
		onDone:     onDone,
		onProgress: onProgress,
		ctx:        ctx,
		cancel:     cancel,
		active:     make(map[string]context.CancelFunc),
	}
}

// TryAcquire offers a job to the pool. It returns false without blocking when
// every worker is busy or when the job's feed already has a transfer in
// flight.
func (p *Pool) TryAcquire(job Job) bool {
	p.mu.Lock()
	if _, running := p.active[job.FeedURL]; running {
		p.mu.Unlock()
		return false
	}
	select {
	case p.slots <- struct{}{}:
	default:
		p.mu.Unlock()
		return false
	}

	jobCtx, jobCancel := context.WithCancel(p.ctx)
	p.active[job.FeedURL] = jobCancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(jobCtx, job)
	return true
}

// Cancel stops the in-flight transfer for a feed, if any. Cancellation is
// cooperative; the completion callback still fires with a canceled outcome.
func (p *Pool) Cancel(feedURL string) {
	p.mu.Lock()
	cancel, ok := p.active[feedURL]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// Stop cancels all transfers and waits for workers to drain.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, job Job) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.active, job.FeedURL)
		p.mu.Unlock()
		<-p.slots
	}()

	err := p.transfer.download(ctx, job, p.onProgress)

	outcome := OutcomeCompleted
	switch {
	case ctx.Err() != nil:
		outcome = OutcomeCanceled
	case err != nil:
		outcome = OutcomeFailed
		slog.Debug("Download failed", "feed", job.FeedURL, "item", job.ItemKey, "error", err)
	}

	if p.onDone != nil {
		p.onDone(job, outcome, err)
	}
}

func (j Job) String() string {
	return fmt.Sprintf("%s -> %s/%s", j.SourceURL, j.TargetDir, j.Filename)
}
