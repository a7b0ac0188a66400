package watcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardwatch-backend/services/watcher/db"
)

type ScanCacheEntry struct {
	Url           string
	Site          string
	Fingerprint   string
	ProductKey    string
	LastCheckedAt time.Time
}

// ScanCache remembers per-URL fingerprints so unchanged pages can skip
// full classification. it is purely an optimization: losing it costs
// extra work, never correctness.
type ScanCache struct {
	qry      *db.Queries
	freshFor time.Duration
}

func NewScanCache(database *sql.DB, freshFor time.Duration) ScanCache {
	return ScanCache{
		qry:      db.New(database),
		freshFor: freshFor,
	}
}

func (c ScanCache) Get(ctx context.Context, url string) (*ScanCacheEntry, error) {
	row, err := c.qry.GetScanCacheEntry(ctx, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan cache entry: %w", err)
	}
	return &ScanCacheEntry{
		Url:           row.Url,
		Site:          row.Site,
		Fingerprint:   row.Fingerprint,
		ProductKey:    row.ProductKey.String,
		LastCheckedAt: time.Unix(row.LastCheckedAt, 0),
	}, nil
}

func (c ScanCache) Put(ctx context.Context, entry ScanCacheEntry, now time.Time) error {
	productKey := sql.NullString{String: entry.ProductKey, Valid: entry.ProductKey != ""}
	err := c.qry.UpsertScanCacheEntry(ctx, db.UpsertScanCacheEntryParams{
		Url:           entry.Url,
		Site:          entry.Site,
		Fingerprint:   entry.Fingerprint,
		ProductKey:    productKey,
		LastCheckedAt: now.Unix(),
	})
	if err != nil {
		return fmt.Errorf("put scan cache entry: %w", err)
	}
	return nil
}

// Forget drops a URL, used when the page is gone (404/410)
func (c ScanCache) Forget(ctx context.Context, url string) error {
	err := c.qry.DeleteScanCacheEntry(ctx, url)
	if err != nil {
		return fmt.Errorf("forget scan cache entry: %w", err)
	}
	return nil
}

func (c ScanCache) Reset(ctx context.Context) error {
	err := c.qry.DeleteScanCacheEntries(ctx)
	if err != nil {
		return fmt.Errorf("reset scan cache: %w", err)
	}
	return nil
}

// Fresh reports whether the cached fingerprint still covers the page:
// same fingerprint and checked within the freshness window. stale
// entries force a full re-check regardless of fingerprint match.
func (c ScanCache) Fresh(entry *ScanCacheEntry, fingerprint string, now time.Time) bool {
	if entry == nil {
		return false
	}
	if entry.Fingerprint != fingerprint {
		return false
	}
	return now.Sub(entry.LastCheckedAt) < c.freshFor
}
