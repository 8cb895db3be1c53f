package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FeedEntry is the public summary of one exported article.
type FeedEntry struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	URL         string    `json:"url"`
	Hero        string    `json:"hero,omitempty"`
	Excerpt     string    `json:"excerpt"`
	PublishedAt time.Time `json:"published_at"`
}

// ReadFeed loads the feed at path. A missing or empty file is an empty feed;
// a file that does not parse is an error so it is never silently replaced.
func ReadFeed(path string) ([]FeedEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []FeedEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []FeedEntry{}, nil
	}
	var entries []FeedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("feed %s: %w", path, err)
	}
	return entries, nil
}

// UpsertFeed replaces the entry with e's slug, or appends e, and returns the
// feed newest first. Entries with equal dates keep slug order.
func UpsertFeed(entries []FeedEntry, e FeedEntry) []FeedEntry {
	out := make([]FeedEntry, 0, len(entries)+1)
	for _, cur := range entries {
		if cur.Slug != e.Slug {
			out = append(out, cur)
		}
	}
	out = append(out, e)

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// UpdateFeed is the read, upsert and atomic rewrite of the feed file. Two
// exporters updating the same file concurrently race; the last rename wins.
func UpdateFeed(path string, e FeedEntry) ([]FeedEntry, error) {
	entries, err := ReadFeed(path)
	if err != nil {
		return nil, err
	}
	entries = UpsertFeed(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if err := writeFile(filepath.Dir(path), filepath.Base(path), data); err != nil {
		return nil, err
	}
	return entries, nil
}
