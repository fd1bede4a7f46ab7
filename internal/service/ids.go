package service

import (
	"strings"

	"github.com/google/uuid"
)

// newRecordID identifies a single-record item (a scraped URL).
func newRecordID() string {
	return uuid.NewString()
}

// newBaseID identifies a document ingestion. Hyphens are stripped so the ID
// is pure hex; it can never contain the chunk separator, which keeps prefix
// resolution unambiguous.
func newBaseID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
