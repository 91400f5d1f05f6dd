// Package playlist regenerates the per-feed playlist file after every
// completion or visibility change: one line per completed item, filename only,
// items outside the feed's exact folder excluded.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ewin66/PodPuppy/app/feed"
)

const (
	writeAttempts = 3
	retryDelay    = 250 * time.Millisecond
)

// FailureFunc reports a playlist write that could not complete, typically
// because another process holds the file. The failure must reach the user; it
// is never fatal.
type FailureFunc func(path string, err error)

type Writer struct {
	baseDir   string
	onFailure FailureFunc
}

func NewWriter(baseDir string, onFailure FailureFunc) *Writer {
	return &Writer{baseDir: baseDir, onFailure: onFailure}
}

// Refresh rewrites the playlist for one feed.
func (w *Writer) Refresh(f *feed.Feed) {
	folder := f.FolderPath(w.baseDir)
	path := filepath.Join(folder, playlistName(f))

	var lines []string
	for _, it := range f.Items() {
		if it.Status != feed.ItemComplete {
			continue
		}
		itemPath := f.ItemPath(w.baseDir, it)
		if filepath.Dir(itemPath) != filepath.Clean(folder) {
			continue
		}
		lines = append(lines, filepath.Base(itemPath))
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		w.report(path, err)
		return
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		if err = os.WriteFile(path, []byte(content), 0o644); err == nil {
			return
		}
	}
	w.report(path, err)
}

func (w *Writer) report(path string, err error) {
	if w.onFailure != nil {
		w.onFailure(path, fmt.Errorf("failed to write playlist: %w", err))
	}
}

func playlistName(f *feed.Feed) string {
	name := feed.SanitizeFilename(f.Title)
	if name == "" {
		name = "playlist"
	}
	return name + ".m3u"
}
