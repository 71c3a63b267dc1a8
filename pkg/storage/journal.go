package storage

import (
	"fmt"

	"oml/pkg/common"
)

// Journal records the outcome of every training request. It is request
// observability only: the model itself is never persisted or restored.
type Journal interface {
	Append(e common.Event) error
	// Recent returns up to n most recent events in ascending sequence order.
	Recent(n int) ([]common.Event, error)
	Count() (int, error)
	Close() error
}

// NewJournal selects a journal backend.
func NewJournal(kind, path string, capacity int) (Journal, error) {
	switch kind {
	case "", "memory":
		return NewMemoryJournal(capacity), nil
	case "file":
		return OpenFileJournal(path)
	case "sqlite":
		return OpenSQLiteJournal(path)
	default:
		return nil, fmt.Errorf("unsupported journal backend: %s", kind)
	}
}
