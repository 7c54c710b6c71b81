// Package journal keeps a record of every transfer event the host handled.
package journal

import (
	"context"
	"time"
)

// Entry is one handled transfer event.
type Entry struct {
	ID           string
	SourcePath   string
	OriginalPath string
	FinalPath    string
	Title        string
	State        string
	Reason       string
	Rewritten    bool
	CreatedAt    time.Time
}

// Journal defines the interface for recording transfer history.
type Journal interface {
	// Record appends an entry. A zero CreatedAt is set to now.
	Record(ctx context.Context, entry Entry) error

	// Recent returns up to limit entries, newest first. A limit <= 0
	// returns everything.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases resources.
	Close() error
}

// Nop discards entries. It is used when the journal is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                 { return nil }
