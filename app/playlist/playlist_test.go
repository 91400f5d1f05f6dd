package playlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ewin66/PodPuppy/app/feed"
)

func testFeed(title string) *feed.Feed {
	f := feed.New("https://example.com/feed.xml")
	f.Title = title
	f.NeverRefreshed = false
	return f
}

func TestRefreshWritesCompletedItemsOnly(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base, nil)

	f := testFeed("My Cast")
	f.AppendItem(&feed.Item{Key: "a", URL: "https://example.com/a.mp3", Title: "A", Status: feed.ItemComplete})
	f.AppendItem(&feed.Item{Key: "b", URL: "https://example.com/b.mp3", Title: "B", Status: feed.ItemPending})
	f.AppendItem(&feed.Item{Key: "c", URL: "https://example.com/c.mp3", Title: "C", Status: feed.ItemComplete})

	w.Refresh(f)

	data, err := os.ReadFile(filepath.Join(base, "My Cast", "My Cast.m3u"))
	if err != nil {
		t.Fatalf("Expected playlist written, got: %v", err)
	}
	if string(data) != "a.mp3\nc.mp3\n" {
		t.Errorf("Expected only completed items listed, got: %q", data)
	}
}

func TestRefreshEmptyPlaylist(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base, nil)

	f := testFeed("Empty Cast")
	f.AppendItem(&feed.Item{Key: "a", URL: "https://example.com/a.mp3", Title: "A", Status: feed.ItemPending})

	w.Refresh(f)

	data, err := os.ReadFile(filepath.Join(base, "Empty Cast", "Empty Cast.m3u"))
	if err != nil {
		t.Fatalf("Expected playlist written, got: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty playlist, got: %q", data)
	}
}

func TestRefreshReportsWriteFailure(t *testing.T) {
	base := t.TempDir()
	var failedPath string
	w := NewWriter(base, func(path string, err error) {
		failedPath = path
	})

	f := testFeed("Blocked")
	folder := filepath.Join(base, "Blocked")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	// A directory at the playlist path makes every write attempt fail.
	if err := os.Mkdir(filepath.Join(folder, "Blocked.m3u"), 0o755); err != nil {
		t.Fatal(err)
	}

	w.Refresh(f)

	if failedPath != filepath.Join(folder, "Blocked.m3u") {
		t.Errorf("Expected failure reported for playlist path, got: %q", failedPath)
	}
}
