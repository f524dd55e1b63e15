// Package id provides the identifiers of every record: UUIDv7, so ids sort
// by creation time.
package id

import (
	"bytes"

	"github.com/google/uuid"
)

// ID identifies a record.
type ID = uuid.UUID

// Nil is the zero ID.
var Nil ID

// New returns a fresh UUIDv7, falling back to a random UUID if the clock
// source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse parses the textual form of an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsNil reports whether v is the zero ID.
func IsNil(v ID) bool {
	return v == Nil
}

// Less orders ids by bytes, which is creation order for UUIDv7.
func Less(a, b ID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
