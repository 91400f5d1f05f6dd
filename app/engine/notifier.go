package engine

import (
	"log/slog"
)

// LogNotifier is the default notifier: user-facing notifications become log
// lines. A UI collaborator substitutes its own implementation.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

func (LogNotifier) FirstRefreshFailed(feedURL, message string) {
	slog.Warn("First refresh failed", "feed", feedURL, "error", message)
}

func (LogNotifier) OPMLDetected(feedURL string) {
	slog.Warn("URL is an OPML subscription list, not a feed; import it instead", "url", feedURL)
}

func (LogNotifier) PlaylistWriteFailed(path string, err error) {
	slog.Warn("Playlist write failed", "path", path, "error", err)
}
