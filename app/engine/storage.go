package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ewin66/PodPuppy/app/feed"
)

// Storage handles the download destination tree. Feeds share the tree; each
// owns a subfolder by convention only, so folder removal has to be tolerant.
type Storage interface {
	feed.FileRemover
	RemoveFeedFolder(f *feed.Feed) error
}

// DiskStorage is the real filesystem implementation.
type DiskStorage struct {
	Base string
}

var _ Storage = (*DiskStorage)(nil)

func (s *DiskStorage) RemoveItemFile(f *feed.Feed, it *feed.Item) error {
	path := f.ItemPath(s.Base, it)
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Failed to remove item file", "path", path, "error", err)
		return err
	}
	return nil
}

// RemoveFeedFolder deletes a feed's folder. A permission failure usually means
// the directory is in use; it is ignored rather than propagated.
func (s *DiskStorage) RemoveFeedFolder(f *feed.Feed) error {
	path := f.FolderPath(s.Base)
	err := os.RemoveAll(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			slog.Debug("Feed folder in use, leaving in place", "path", path)
			return nil
		}
		return err
	}
	return nil
}
