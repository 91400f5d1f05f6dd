package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ewin66/PodPuppy/app/feed"
)

var _ Store = (*FeedRepository)(nil)

// FeedRepository persists the feed collection as a snapshot: one record per
// feed plus its ordered item list.
type FeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// SaveAll replaces the stored snapshot with the given collection. In-flight
// states are normalized on the way out: a refresh or download cannot survive
// a restart, so refreshing/redirecting/downloading persist as pending.
func (r *FeedRepository) SaveAll(feeds []*feed.Feed) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM feed_items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM feeds`); err != nil {
		return fmt.Errorf("failed to clear feeds: %w", err)
	}

	for _, f := range feeds {
		if f.Status == feed.StatusRemoved {
			continue
		}
		var feedID int64
		err := tx.QueryRow(`
			INSERT INTO feeds (
				url, link, title, description, folder,
				archive_mode, sync_enabled, dynamically_added, priority,
				album_template, genre_template, artist_template, title_template,
				album_enabled, genre_enabled, artist_enabled, title_enabled,
				filename_pattern, overwrite_existing,
				status, error_message, never_refreshed
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, f.URL, f.Link, f.Title, f.Description, f.Folder,
			string(f.ArchiveMode), f.SyncEnabled, f.DynamicallyAdded, f.Priority,
			f.Tags.AlbumTemplate, f.Tags.GenreTemplate, f.Tags.ArtistTemplate, f.Tags.TitleTemplate,
			f.Tags.AlbumEnabled, f.Tags.GenreEnabled, f.Tags.ArtistEnabled, f.Tags.TitleEnabled,
			f.Tags.FilenamePattern, f.Tags.OverwriteExisting,
			string(normalizeFeedStatus(f.Status)), f.ErrorMessage, f.NeverRefreshed,
		).Scan(&feedID)
		if err != nil {
			return fmt.Errorf("failed to insert feed %s: %w", f.URL, err)
		}

		for pos, it := range f.Items() {
			_, err := tx.Exec(`
				INSERT INTO feed_items (
					feed_id, item_key, url, title, description,
					status, published_at, downloaded_at, position
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, feedID, it.Key, it.URL, it.Title, it.Description,
				string(normalizeItemStatus(it.Status)), it.PublishedAt.UTC(), nullableTime(it.DownloadedAt), pos,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %s: %w", it.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadAll restores the feed collection ordered by priority. A malformed feed
// record yields a feed in error state rather than failing the whole load.
// Records from older snapshots missing folder or priority get defaults: an
// auto-generated folder name and the next sequential priority.
func (r *FeedRepository) LoadAll() ([]*feed.Feed, int, error) {
	rows, err := r.db.Query(`
		SELECT id, url, link, title, description, folder,
		       archive_mode, sync_enabled, dynamically_added, priority,
		       album_template, genre_template, artist_template, title_template,
		       album_enabled, genre_enabled, artist_enabled, title_enabled,
		       filename_pattern, overwrite_existing,
		       status, error_message, never_refreshed
		FROM feeds
		ORDER BY priority, id
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*feed.Feed
	ids := make(map[string]int64)
	maxPriority := 0

	for rows.Next() {
		f, id, err := scanFeed(rows)
		if err != nil {
			slog.Warn("Skipping malformed feed record", "error", err)
			broken := feed.New("")
			broken.Status = feed.StatusError
			broken.ErrorMessage = fmt.Sprintf("failed to load feed record: %v", err)
			feeds = append(feeds, broken)
			continue
		}
		if f.Priority > maxPriority {
			maxPriority = f.Priority
		}
		ids[f.URL] = id
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate feed rows: %w", err)
	}

	// Assign the next sequential priority to records that lacked one. The
	// counter is owned here and threaded through explicitly.
	nextPriority := maxPriority + 1
	for _, f := range feeds {
		if f.Priority == 0 {
			f.Priority = nextPriority
			nextPriority++
		}
	}

	for _, f := range feeds {
		id, ok := ids[f.URL]
		if !ok {
			continue
		}
		items, err := r.loadItems(id)
		if err != nil {
			f.Status = feed.StatusError
			f.ErrorMessage = fmt.Sprintf("failed to load feed items: %v", err)
			continue
		}
		f.ReplaceItems(items)
	}

	sort.SliceStable(feeds, func(i, j int) bool { return feeds[i].Priority < feeds[j].Priority })

	return feeds, nextPriority, nil
}

func (r *FeedRepository) loadItems(feedID int64) ([]*feed.Item, error) {
	rows, err := r.db.Query(`
		SELECT item_key, url, title, description, status, published_at, downloaded_at
		FROM feed_items
		WHERE feed_id = ?
		ORDER BY position
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*feed.Item
	for rows.Next() {
		var it feed.Item
		var status string
		var downloaded sql.NullTime
		if err := rows.Scan(&it.Key, &it.URL, &it.Title, &it.Description, &status, &it.PublishedAt, &downloaded); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		it.Status = feed.ItemStatus(status)
		if downloaded.Valid {
			t := downloaded.Time
			it.DownloadedAt = &t
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", err)
	}
	return items, nil
}

func scanFeed(rows *sql.Rows) (*feed.Feed, int64, error) {
	var (
		id       int64
		f        feed.Feed
		folder   sql.NullString
		priority sql.NullInt64
		mode     string
		status   string
	)
	err := rows.Scan(
		&id, &f.URL, &f.Link, &f.Title, &f.Description, &folder,
		&mode, &f.SyncEnabled, &f.DynamicallyAdded, &priority,
		&f.Tags.AlbumTemplate, &f.Tags.GenreTemplate, &f.Tags.ArtistTemplate, &f.Tags.TitleTemplate,
		&f.Tags.AlbumEnabled, &f.Tags.GenreEnabled, &f.Tags.ArtistEnabled, &f.Tags.TitleEnabled,
		&f.Tags.FilenamePattern, &f.Tags.OverwriteExisting,
		&status, &f.ErrorMessage, &f.NeverRefreshed,
	)
	if err != nil {
		return nil, 0, err
	}

	restored := feed.New(f.URL)
	restored.Link = f.Link
	restored.Title = f.Title
	restored.Description = f.Description
	restored.ArchiveMode = feed.ParseArchiveMode(mode)
	restored.SyncEnabled = f.SyncEnabled
	restored.DynamicallyAdded = f.DynamicallyAdded
	restored.Tags = f.Tags
	restored.Status = feed.Status(status)
	restored.ErrorMessage = f.ErrorMessage
	restored.NeverRefreshed = f.NeverRefreshed

	if folder.Valid && folder.String != "" {
		restored.Folder = folder.String
	} else if f.Title != "" {
		restored.Folder = feed.SanitizeFilename(f.Title)
	}
	if priority.Valid {
		restored.Priority = int(priority.Int64)
	}

	return restored, id, nil
}

func normalizeFeedStatus(s feed.Status) feed.Status {
	switch s {
	case feed.StatusRefreshing, feed.StatusRedirecting, feed.StatusDownloading:
		return feed.StatusPending
	}
	return s
}

func normalizeItemStatus(s feed.ItemStatus) feed.ItemStatus {
	if s == feed.ItemDownloading {
		return feed.ItemPending
	}
	return s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
