package store

import (
	"database/sql"
	"sync"
	"time"

	"github.com/ravend/ravend/internal/database"
)

// Store serializes every mutation behind one mutex, matching spec.md §4.1
// and §5: a single connection per process, readers outside the process see
// committed WAL pages.
type Store struct {
	db *database.DB
	mu sync.Mutex
}

// New wraps an already-opened, already-migrated database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNullableInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
