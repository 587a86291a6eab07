package models

// StoredLocation is the persisted form of the last known location.
// Timestamp is milliseconds since the Unix epoch at save time.
type StoredLocation struct {
	Coords    Coords `json:"coords"`
	Timestamp int64  `json:"timestamp"`
}
