package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubscriptionEntry is one feed in the optional subscriptions seed file.
// Feeds imported this way are flagged as dynamically added.
type SubscriptionEntry struct {
	URL         string `yaml:"url"`
	Folder      string `yaml:"folder"`
	ArchiveMode string `yaml:"archive_mode"`
	Sync        *bool  `yaml:"sync"`
}

type subscriptionsFile struct {
	Feeds []SubscriptionEntry `yaml:"feeds"`
}

// LoadSubscriptions reads a YAML subscriptions file. A missing file is not an
// error; it simply yields no entries.
func LoadSubscriptions(path string) ([]SubscriptionEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var file subscriptionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}

	entries := make([]SubscriptionEntry, 0, len(file.Feeds))
	for _, e := range file.Feeds {
		if e.URL == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
