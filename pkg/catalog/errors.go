package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is returned when the persistence layer cannot be
	// opened or used. Callers degrade to an in-memory catalog.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrTransactionFailed is returned when a store transaction aborts. The
	// store's previous state is left unchanged.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNewerSchema means the database was written by a newer schema version.
	ErrNewerSchema = errors.New("database schema is newer than supported")
)

// MalformedCatalogError reports the first shape violation in a catalog
// document. Index is -1 for document-level problems.
type MalformedCatalogError struct {
	Index  int
	Field  string
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed catalog: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed catalog: product %d: %s: %s", e.Index, e.Field, e.Reason)
}

// IsMalformed reports whether err is or wraps a MalformedCatalogError.
func IsMalformed(err error) bool {
	var m *MalformedCatalogError
	return errors.As(err, &m)
}
