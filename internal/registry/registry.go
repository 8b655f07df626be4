// Package registry holds the loaded set of found-item records and answers
// filtered views over it without re-querying the store.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// StatusFilter selects which statuses a filtered view includes.
type StatusFilter string

// Status filters. All matches every record regardless of status.
const (
	StatusAll      StatusFilter = "all"
	StatusFound    StatusFilter = StatusFilter(model.StatusFound)
	StatusClaimed  StatusFilter = StatusFilter(model.StatusClaimed)
	StatusReturned StatusFilter = StatusFilter(model.StatusReturned)
)

// ParseStatusFilter maps a raw query value to a StatusFilter. Empty input
// means All; anything else is passed through as an exact-match filter (an
// unknown value simply matches nothing).
func ParseStatusFilter(s string) StatusFilter {
	if s == "" {
		return StatusAll
	}
	return StatusFilter(s)
}

// Registry caches the most recently loaded snapshot of found items.
type Registry struct {
	DB *sql.DB

	mu    sync.Mutex
	items []model.FoundItem
}

// New creates a Registry reading from the given database.
func New(db *sql.DB) *Registry {
	return &Registry{DB: db}
}

// Load fetches all records, newest first, joined with reporter display
// fields, and replaces the cached snapshot. On failure the prior snapshot is
// preserved and returned alongside the error, so callers can show stale data
// while surfacing the problem. Loads are never retried here.
func (r *Registry) Load(ctx context.Context) ([]model.FoundItem, error) {
	items, err := store.ListFoundItems(ctx, r.DB)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		return r.items, fmt.Errorf("loading found items: %w", err)
	}
	r.items = items
	return r.items, nil
}

// Snapshot returns the cached records from the last successful Load.
func (r *Registry) Snapshot() []model.FoundItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items
}

// Drop removes an item from the cached snapshot after a successful delete,
// so the view updates without a re-fetch.
func (r *Registry) Drop(itemID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range r.items {
		if item.ID == itemID {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return
		}
	}
}

// Filter returns the records matching the query and status filter. The match
// is pure and order-preserving: a record survives if its status matches the
// filter (or the filter is All) and the query, lowercased, is a substring of
// its title, description, or found location. An empty query matches
// everything; an absent description never matches a non-empty query.
func Filter(records []model.FoundItem, query string, status StatusFilter) []model.FoundItem {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []model.FoundItem
	for _, record := range records {
		if status != StatusAll && record.Status != string(status) {
			continue
		}
		if query != "" && !matchesQuery(&record, query) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func matchesQuery(record *model.FoundItem, query string) bool {
	if strings.Contains(strings.ToLower(record.Title), query) {
		return true
	}
	if record.Description != "" && strings.Contains(strings.ToLower(record.Description), query) {
		return true
	}
	return strings.Contains(strings.ToLower(record.FoundLocation), query)
}

// Counts aggregates records by status for summary display.
type Counts struct {
	Found    int `json:"found"`
	Claimed  int `json:"claimed"`
	Returned int `json:"returned"`
}

// CountByStatus partitions the records into per-status totals.
func CountByStatus(records []model.FoundItem) Counts {
	var c Counts
	for _, record := range records {
		switch record.Status {
		case model.StatusFound:
			c.Found++
		case model.StatusClaimed:
			c.Claimed++
		case model.StatusReturned:
			c.Returned++
		}
	}
	return c
}
