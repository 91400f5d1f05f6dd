package database

import (
	"github.com/ewin66/PodPuppy/app/feed"
)

// Store is the persistence contract the engine depends on: a full snapshot of
// the feed collection in, the restored collection out.
type Store interface {
	// SaveAll persists the ordered feed collection as one snapshot.
	SaveAll(feeds []*feed.Feed) error
	// LoadAll restores the collection and returns the next free priority
	// value, having assigned sequential priorities to records that lacked one.
	LoadAll() ([]*feed.Feed, int, error)
}
