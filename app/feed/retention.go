package feed

import (
	"time"
)

const (
	oneWeek  = 7 * 24 * time.Hour
	oneMonth = 28 * 24 * time.Hour
)

// ItemsToRemove evaluates the feed's archive mode against the current items
// and the candidate URL set from the latest fetch, and returns the items whose
// records (and downloaded files) should go. The rules are evaluated per item,
// independent of order:
//
//   - a deleted tombstone whose URL the source no longer lists is always
//     removable, in every mode
//   - keep never removes anything else
//   - the age-based modes remove complete items downloaded more than a
//     week/month ago
//   - match_feed removes anything the source no longer lists
//   - keep_latest retains only the most recent item by publication date; the
//     comparison is strict, so items tied on the latest date all survive
//
// An item currently downloading is never removed.
func ItemsToRemove(items []*Item, mode ArchiveMode, candidateURLs map[string]bool, now time.Time) []*Item {
	var latest time.Time
	if mode == ArchiveKeepLatest {
		for _, it := range items {
			if it.PublishedAt.After(latest) {
				latest = it.PublishedAt
			}
		}
	}

	var remove []*Item
	for _, it := range items {
		if it.Status == ItemDownloading {
			continue
		}

		if it.Status == ItemDeleted && !candidateURLs[it.URL] {
			remove = append(remove, it)
			continue
		}

		switch mode {
		case ArchiveDeleteAfterOneWeek:
			if expired(it, now, oneWeek) {
				remove = append(remove, it)
			}
		case ArchiveDeleteAfterOneMonth:
			if expired(it, now, oneMonth) {
				remove = append(remove, it)
			}
		case ArchiveMatchFeed:
			if !candidateURLs[it.URL] {
				remove = append(remove, it)
			}
		case ArchiveKeepLatest:
			if it.PublishedAt.Before(latest) {
				remove = append(remove, it)
			}
		}
	}
	return remove
}

func expired(it *Item, now time.Time, maxAge time.Duration) bool {
	return it.Status == ItemComplete && it.DownloadedAt != nil && now.Sub(*it.DownloadedAt) > maxAge
}
