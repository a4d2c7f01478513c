package domain

import "time"

// ViewRecord marks one admitted impression for a viewer/ad pair. Records
// are append-only; the engine never mutates or deletes them. They exist
// solely to evaluate the frequency-cap sliding window.
type ViewRecord struct {
	ID       int64
	ViewerID string
	AdID     int64
	ViewedAt time.Time
}
