package watcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardwatch-backend/services/watcher/classify"
	"cardwatch-backend/services/watcher/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type LedgerEntry struct {
	Key           string
	Site          string
	Title         string
	Url           string
	LastState     classify.State
	Fingerprint   string
	DegradedKey   bool
	FirstSeenAt   time.Time
	LastCheckedAt time.Time
	// nil until the first notification for this key was accepted for
	// dispatch
	LastNotifiedState *classify.State
}

// Ledger is the durable source of truth for transition detection:
// product key -> last known state. every mutating operation commits
// before returning so a crash between "observed" and "notified" never
// loses the observation.
type Ledger struct {
	db  *sql.DB
	qry *db.Queries
}

func NewLedger(database *sql.DB) Ledger {
	return Ledger{
		db:  database,
		qry: db.New(database),
	}
}

func entryFromRow(row db.Ledger) *LedgerEntry {
	entry := &LedgerEntry{
		Key:           row.Key,
		Site:          row.Site,
		Title:         row.Title,
		Url:           row.Url,
		LastState:     classify.State(row.LastState),
		Fingerprint:   row.Fingerprint,
		DegradedKey:   row.DegradedKey != 0,
		FirstSeenAt:   time.Unix(row.FirstSeenAt, 0),
		LastCheckedAt: time.Unix(row.LastCheckedAt, 0),
	}
	if row.LastNotifiedState.Valid {
		state := classify.State(row.LastNotifiedState.Int64)
		entry.LastNotifiedState = &state
	}
	return entry
}

// returns nil without error when the key has never been seen
func (l Ledger) GetEntry(ctx context.Context, key string) (*LedgerEntry, error) {
	row, err := l.qry.GetLedgerEntry(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return entryFromRow(row), nil
}

type Sighting struct {
	Identity    Identity
	Title       string
	Url         string
	State       classify.State
	Fingerprint string
}

// RecordSighting creates the entry on first sighting and updates
// lastState, fingerprint and lastCheckedAt on every later one.
// firstSeenAt and lastNotifiedState are never touched here.
//
// an UNKNOWN sighting of a known product only advances lastCheckedAt:
// the classifier could not determine anything, so the last known state
// is preserved rather than overwritten.
func (l Ledger) RecordSighting(ctx context.Context, s Sighting, now time.Time) (*LedgerEntry, error) {
	key := s.Identity.Key()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("record sighting: %w", err)
	}
	defer tx.Rollback()
	txqry := l.qry.WithTx(tx)

	_, err = txqry.GetLedgerEntry(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		degraded := int64(0)
		if s.Identity.Degraded {
			degraded = 1
		}
		err = txqry.CreateLedgerEntry(ctx, db.CreateLedgerEntryParams{
			Key:           key,
			Site:          s.Identity.Site,
			Title:         s.Title,
			Url:           s.Url,
			LastState:     int64(s.State),
			Fingerprint:   s.Fingerprint,
			DegradedKey:   degraded,
			FirstSeenAt:   now.Unix(),
			LastCheckedAt: now.Unix(),
		})
		if err != nil {
			return nil, fmt.Errorf("create ledger entry: %w", err)
		}
		err = tx.Commit()
		if err != nil {
			return nil, fmt.Errorf("record sighting: %w", err)
		}
		return l.GetEntry(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("record sighting: %w", err)
	}

	if s.State == classify.StateUnknown {
		err = txqry.TouchLedgerEntry(ctx, db.TouchLedgerEntryParams{
			LastCheckedAt: now.Unix(),
			Key:           key,
		})
	} else {
		err = txqry.UpdateLedgerSighting(ctx, db.UpdateLedgerSightingParams{
			LastState:     int64(s.State),
			Fingerprint:   s.Fingerprint,
			Title:         s.Title,
			Url:           s.Url,
			LastCheckedAt: now.Unix(),
			Key:           key,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("record sighting: %w", err)
	}

	return l.GetEntry(ctx, key)
}

// Touch advances lastCheckedAt without touching anything else, used
// when a fetch failed but the product is still being watched
func (l Ledger) Touch(ctx context.Context, key string, now time.Time) error {
	err := l.qry.TouchLedgerEntry(ctx, db.TouchLedgerEntryParams{
		LastCheckedAt: now.Unix(),
		Key:           key,
	})
	if err != nil {
		return fmt.Errorf("touch ledger entry: %w", err)
	}
	return nil
}

// MarkNotified is called only after a notification was accepted for
// dispatch, never before. duplicate notification after a crash between
// dispatch and this call is the accepted failure mode.
func (l Ledger) MarkNotified(ctx context.Context, key string, state classify.State) error {
	err := l.qry.SetLedgerNotifiedState(ctx, db.SetLedgerNotifiedStateParams{
		LastNotifiedState: sql.NullInt64{Int64: int64(state), Valid: true},
		Key:               key,
	})
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

// Reset clears all entries; explicit operator action only. a missing
// entry afterwards is equivalent to "never seen".
func (l Ledger) Reset(ctx context.Context) error {
	err := l.qry.DeleteLedgerEntries(ctx)
	if err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// ListByState produces a snapshot for operator views like "show all
// out-of-stock"
func (l Ledger) ListByState(ctx context.Context, state classify.State) ([]LedgerEntry, error) {
	rows, err := l.qry.ListLedgerByState(ctx, int64(state))
	if err != nil {
		return nil, fmt.Errorf("list ledger by state: %w", err)
	}
	entries := make([]LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = *entryFromRow(row)
	}
	return entries, nil
}

func (l Ledger) List(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := l.qry.ListLedgerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	entries := make([]LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = *entryFromRow(row)
	}
	return entries, nil
}
