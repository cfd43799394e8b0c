package journal

import (
	"slices"
	"strings"
)

// SearchEntries keeps entries whose title or content contains query,
// compared case-insensitively. An empty query matches everything.
func SearchEntries(entries []*Entry, query string) []*Entry {
	q := strings.ToLower(query)
	var out []*Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, e)
		}
	}
	return out
}

// FilterEntriesByTag keeps entries whose tag list contains tag exactly.
func FilterEntriesByTag(entries []*Entry, tag string) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if slices.Contains(e.Tags, tag) {
			out = append(out, e)
		}
	}
	return out
}

// FilterEntriesByMood keeps entries with the given mood.
func FilterEntriesByMood(entries []*Entry, mood Mood) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.Mood == mood {
			out = append(out, e)
		}
	}
	return out
}
