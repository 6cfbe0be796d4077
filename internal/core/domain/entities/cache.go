package entities

import "time"

// CacheEntry is the per-category on-device copy of the last successful fetch.
// Entries are replaced wholesale on every write, never merged.
type CacheEntry struct {
	Tasks     []Task    `json:"tasks"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Expired reports whether the entry is older than ttl and must be treated as
// absent by readers.
func (e *CacheEntry) Expired(ttl time.Duration, now time.Time) bool {
	if e == nil {
		return true
	}
	return now.Sub(e.FetchedAt) > ttl
}
