package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ewin66/PodPuppy/app/feed"
)

func newTestRepository(t *testing.T) *FeedRepository {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return NewFeedRepository(db)
}

func TestSaveAllAndLoadAllRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	downloaded := time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	f := feed.New("https://example.com/feed.xml")
	f.Title = "My Cast"
	f.Link = "https://example.com"
	f.Description = "A show"
	f.Folder = "Shows/My Cast"
	f.ArchiveMode = feed.ArchiveMatchFeed
	f.DynamicallyAdded = true
	f.Priority = 3
	f.Tags = feed.DefaultTagSettings()
	f.Tags.OverwriteExisting = true
	f.Status = feed.StatusCompleteWithErrors
	f.ErrorMessage = "one item failed"
	f.NeverRefreshed = false
	f.AppendItem(&feed.Item{
		Key: "https://example.com/1.mp3", URL: "https://example.com/1.mp3",
		Title: "One", Description: "first", Status: feed.ItemComplete,
		PublishedAt: published, DownloadedAt: &downloaded,
	})
	f.AppendItem(&feed.Item{
		Key: "synth-key", URL: "https://example.com/2.mp3",
		Title: "???", Status: feed.ItemError, PublishedAt: published,
	})
	f.AppendItem(&feed.Item{
		Key: "https://example.com/3.mp3", URL: "https://example.com/3.mp3",
		Title: "Three", Status: feed.ItemSkip, PublishedAt: published,
	})

	if err := repo.SaveAll([]*feed.Feed{f}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	feeds, nextPriority, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("Expected 1 feed, got: %d", len(feeds))
	}
	if nextPriority != 4 {
		t.Errorf("Expected next priority 4, got: %d", nextPriority)
	}

	got := feeds[0]
	if got.URL != f.URL || got.Title != f.Title || got.Link != f.Link || got.Description != f.Description {
		t.Errorf("Feed head fields not preserved: %+v", got)
	}
	if got.Folder != "Shows/My Cast" {
		t.Errorf("Expected folder preserved, got: %s", got.Folder)
	}
	if got.ArchiveMode != feed.ArchiveMatchFeed {
		t.Errorf("Expected archive mode preserved, got: %s", got.ArchiveMode)
	}
	if !got.DynamicallyAdded || got.Priority != 3 {
		t.Errorf("Expected flags and priority preserved: %+v", got)
	}
	if got.Tags != f.Tags {
		t.Errorf("Expected tag settings preserved, got: %+v", got.Tags)
	}
	if got.Status != feed.StatusCompleteWithErrors || got.ErrorMessage != "one item failed" {
		t.Errorf("Expected status fields preserved, got: %s / %s", got.Status, got.ErrorMessage)
	}
	if got.NeverRefreshed {
		t.Errorf("Expected never-refreshed flag preserved as false")
	}

	items := got.Items()
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got: %d", len(items))
	}
	for i, key := range []string{"https://example.com/1.mp3", "synth-key", "https://example.com/3.mp3"} {
		if items[i].Key != key {
			t.Errorf("Position %d: expected key %s, got: %s", i, key, items[i].Key)
		}
	}
	if items[0].Status != feed.ItemComplete || items[1].Status != feed.ItemError || items[2].Status != feed.ItemSkip {
		t.Errorf("Item statuses not preserved: %s %s %s", items[0].Status, items[1].Status, items[2].Status)
	}
	if !items[0].PublishedAt.UTC().Equal(published) {
		t.Errorf("Expected published date preserved, got: %v", items[0].PublishedAt)
	}
	if items[0].DownloadedAt == nil || !items[0].DownloadedAt.UTC().Equal(downloaded) {
		t.Errorf("Expected downloaded date preserved, got: %v", items[0].DownloadedAt)
	}
	if items[1].DownloadedAt != nil {
		t.Errorf("Expected nil downloaded date preserved")
	}
}

func TestSaveAllNormalizesInFlightStates(t *testing.T) {
	repo := newTestRepository(t)

	f := feed.New("https://example.com/feed.xml")
	f.Title = "Busy"
	f.Priority = 1
	f.Status = feed.StatusDownloading
	f.AppendItem(&feed.Item{Key: "a", URL: "a", Status: feed.ItemDownloading, PublishedAt: time.Now()})

	if err := repo.SaveAll([]*feed.Feed{f}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	feeds, _, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if feeds[0].Status != feed.StatusPending {
		t.Errorf("Expected downloading feed persisted as pending, got: %s", feeds[0].Status)
	}
	if feeds[0].Items()[0].Status != feed.ItemPending {
		t.Errorf("Expected downloading item persisted as pending, got: %s", feeds[0].Items()[0].Status)
	}
}

func TestSaveAllSkipsRemovedFeeds(t *testing.T) {
	repo := newTestRepository(t)

	kept := feed.New("https://example.com/kept.xml")
	kept.Priority = 1
	removed := feed.New("https://example.com/removed.xml")
	removed.Priority = 2
	removed.Status = feed.StatusRemoved

	if err := repo.SaveAll([]*feed.Feed{kept, removed}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	feeds, _, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(feeds) != 1 || feeds[0].URL != kept.URL {
		t.Errorf("Expected only the kept feed persisted, got %d feeds", len(feeds))
	}
}

func TestSaveAllReplacesPreviousSnapshot(t *testing.T) {
	repo := newTestRepository(t)

	a := feed.New("https://example.com/a.xml")
	a.Priority = 1
	if err := repo.SaveAll([]*feed.Feed{a}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	b := feed.New("https://example.com/b.xml")
	b.Priority = 1
	if err := repo.SaveAll([]*feed.Feed{b}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	feeds, _, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(feeds) != 1 || feeds[0].URL != b.URL {
		t.Errorf("Expected snapshot replaced, got %d feeds", len(feeds))
	}
}

func TestLoadAllOrdersByPriority(t *testing.T) {
	repo := newTestRepository(t)

	first := feed.New("https://example.com/first.xml")
	first.Priority = 1
	third := feed.New("https://example.com/third.xml")
	third.Priority = 7
	second := feed.New("https://example.com/second.xml")
	second.Priority = 4

	if err := repo.SaveAll([]*feed.Feed{third, first, second}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	feeds, nextPriority, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	expected := []string{"https://example.com/first.xml", "https://example.com/second.xml", "https://example.com/third.xml"}
	for i, url := range expected {
		if feeds[i].URL != url {
			t.Errorf("Position %d: expected %s, got: %s", i, url, feeds[i].URL)
		}
	}
	if nextPriority != 8 {
		t.Errorf("Expected next priority 8, got: %d", nextPriority)
	}
}

func TestLoadAllAssignsMissingPriorities(t *testing.T) {
	repo := newTestRepository(t)

	withPriority := feed.New("https://example.com/a.xml")
	withPriority.Priority = 5
	without := feed.New("https://example.com/b.xml")

	if err := repo.SaveAll([]*feed.Feed{withPriority, without}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	feeds, nextPriority, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	var assigned int
	for _, f := range feeds {
		if f.URL == without.URL {
			assigned = f.Priority
		}
	}
	if assigned != 6 {
		t.Errorf("Expected missing priority assigned 6, got: %d", assigned)
	}
	if nextPriority != 7 {
		t.Errorf("Expected next priority 7, got: %d", nextPriority)
	}
}

func TestLoadAllDefaultsFolderFromTitle(t *testing.T) {
	repo := newTestRepository(t)

	f := feed.New("https://example.com/feed.xml")
	f.Title = "Som*e Sh:ow"
	f.Priority = 1

	if err := repo.SaveAll([]*feed.Feed{f}); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	feeds, _, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if feeds[0].Folder != "Som_e Sh_ow" {
		t.Errorf("Expected folder derived from sanitized title, got: %s", feeds[0].Folder)
	}
}
