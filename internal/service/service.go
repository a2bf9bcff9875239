// Package service composes the row store with the entity mappers to offer
// entity-level operations. Services hold no cross-call state: every operation
// re-reads the remote sheet, and row numbers never survive a call boundary.
package service

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func defaultNow() time.Time {
	return time.Now().UTC()
}

func defaultNewID() string {
	return uuid.NewString()
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseTimestamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
