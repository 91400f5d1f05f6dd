package downloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type doneRecorder struct {
	mu   sync.Mutex
	jobs []Job
	outs []Outcome
	done chan struct{}
}

func newDoneRecorder() *doneRecorder {
	return &doneRecorder{done: make(chan struct{}, 16)}
}

func (r *doneRecorder) record(job Job, outcome Outcome, err error) {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.outs = append(r.outs, outcome)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *doneRecorder) wait(t *testing.T) (Job, Outcome) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for completion callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[len(r.jobs)-1], r.outs[len(r.outs)-1]
}

// acquireEventually retries TryAcquire until the worker that just reported
// completion has actually drained and released its slot.
func acquireEventually(t *testing.T, pool *Pool, job Job) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !pool.TryAcquire(job) {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for a free worker slot")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mediaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPoolDownloadsAndReleasesSlot(t *testing.T) {
	server := mediaServer(t, "episode data")
	target := t.TempDir()
	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	job := Job{
		FeedURL:   "https://example.com/feed.xml",
		ItemKey:   "ep1",
		SourceURL: server.URL + "/ep1.mp3",
		TargetDir: target,
		Filename:  "ep1.mp3",
	}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected idle pool to accept the job")
	}

	_, outcome := rec.wait(t)
	if outcome != OutcomeCompleted {
		t.Fatalf("Expected completed outcome, got: %d", outcome)
	}

	data, err := os.ReadFile(filepath.Join(target, "ep1.mp3"))
	if err != nil {
		t.Fatalf("Expected file written, got: %v", err)
	}
	if string(data) != "episode data" {
		t.Errorf("Expected body written, got: %q", data)
	}
	if _, err := os.Stat(filepath.Join(target, "ep1.mp3.part")); err == nil {
		t.Errorf("Expected partial file renamed away")
	}

	// The slot is free again once the worker drains.
	job2 := job
	job2.FeedURL = "https://example.com/other.xml"
	job2.Filename = "ep2.mp3"
	acquireEventually(t, pool, job2)
	rec.wait(t)
}

func TestPoolRejectsSecondJobForSameFeed(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Write([]byte("x"))
	}))
	defer server.Close()
	defer close(block)

	rec := newDoneRecorder()
	pool := NewPool(2, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	job := Job{
		FeedURL:   "https://example.com/feed.xml",
		ItemKey:   "ep1",
		SourceURL: server.URL + "/ep1.mp3",
		TargetDir: t.TempDir(),
		Filename:  "ep1.mp3",
	}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected first job accepted")
	}
	if pool.TryAcquire(job) {
		t.Errorf("Expected second job for the same feed rejected")
	}
}

func TestPoolRejectsWhenAllWorkersBusy(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Write([]byte("x"))
	}))
	defer server.Close()
	defer close(block)

	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	first := Job{FeedURL: "a", ItemKey: "1", SourceURL: server.URL, TargetDir: t.TempDir(), Filename: "a.mp3"}
	second := Job{FeedURL: "b", ItemKey: "2", SourceURL: server.URL, TargetDir: t.TempDir(), Filename: "b.mp3"}
	if !pool.TryAcquire(first) {
		t.Fatal("Expected first job accepted")
	}
	if pool.TryAcquire(second) {
		t.Errorf("Expected job rejected while the only worker is busy")
	}
}

func TestPoolCancelReportsCanceledOutcome(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-block
	}))
	defer server.Close()
	defer close(block)

	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	job := Job{FeedURL: "a", ItemKey: "1", SourceURL: server.URL, TargetDir: t.TempDir(), Filename: "a.mp3"}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected job accepted")
	}
	<-started
	pool.Cancel(job.FeedURL)

	_, outcome := rec.wait(t)
	if outcome != OutcomeCanceled {
		t.Errorf("Expected canceled outcome, got: %d", outcome)
	}
}

func TestPoolFailureOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	job := Job{FeedURL: "a", ItemKey: "1", SourceURL: server.URL, TargetDir: t.TempDir(), Filename: "a.mp3"}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected job accepted")
	}
	_, outcome := rec.wait(t)
	if outcome != OutcomeFailed {
		t.Errorf("Expected failed outcome, got: %d", outcome)
	}
}

func TestDownloadSkipsExistingFileWithoutOverwrite(t *testing.T) {
	server := mediaServer(t, "new data")
	target := t.TempDir()
	existing := filepath.Join(target, "ep1.mp3")
	if err := os.WriteFile(existing, []byte("old data"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", nil, rec.record)
	defer pool.Stop()

	job := Job{FeedURL: "a", ItemKey: "1", SourceURL: server.URL, TargetDir: target, Filename: "ep1.mp3"}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected job accepted")
	}
	_, outcome := rec.wait(t)
	if outcome != OutcomeCompleted {
		t.Fatalf("Expected completed outcome, got: %d", outcome)
	}

	data, _ := os.ReadFile(existing)
	if string(data) != "old data" {
		t.Errorf("Expected existing file untouched, got: %q", data)
	}

	job.Overwrite = true
	acquireEventually(t, pool, job)
	_, outcome = rec.wait(t)
	if outcome != OutcomeCompleted {
		t.Fatalf("Expected completed outcome, got: %d", outcome)
	}
	data, _ = os.ReadFile(existing)
	if string(data) != "new data" {
		t.Errorf("Expected file overwritten, got: %q", data)
	}
}

func TestProgressReachesOneHundred(t *testing.T) {
	server := mediaServer(t, "0123456789")
	var mu sync.Mutex
	var percents []int
	progress := func(job Job, percent int) {
		mu.Lock()
		percents = append(percents, percent)
		mu.Unlock()
	}

	rec := newDoneRecorder()
	pool := NewPool(1, "TestAgent/1.0", progress, rec.record)
	defer pool.Stop()

	job := Job{FeedURL: "a", ItemKey: "1", SourceURL: server.URL, TargetDir: t.TempDir(), Filename: "a.mp3"}
	if !pool.TryAcquire(job) {
		t.Fatal("Expected job accepted")
	}
	rec.wait(t)

	mu.Lock()
	defer mu.Unlock()
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("Expected progress to finish at 100, got: %v", percents)
	}
}
