package domain

import "github.com/google/uuid"

// NewID returns a time-ordered unique identifier (UUIDv7).
// Ids sort by creation time, like the timestamp ids of older exports.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
