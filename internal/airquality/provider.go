package airquality

import (
	"context"
)

// Provider abstracts the air-quality feed (WAQI in production).
// On failure it returns a reading with both metrics nil together with a
// *TransportError or *APIError.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (Reading, error)
}

// HistoryStore is the contract every history backend (CSV, SQLite, memory) satisfies.
type HistoryStore interface {
	// Load returns the persisted log. A missing log is an empty history, not an error.
	Load(ctx context.Context) (History, error)
	// Append adds r to h and persists it when both metrics are present.
	// Otherwise it returns h unchanged and does not touch storage.
	Append(ctx context.Context, h History, r Reading) (History, error)
}

// Publisher receives every reading that was appended to the history.
type Publisher interface {
	Publish(ctx context.Context, r Reading) error
}
