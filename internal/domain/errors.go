package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than .csv, .xlsx and .xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrReadFailure wraps failures reading or decoding source bytes.
	ErrReadFailure = errors.New("failed to read source")
	// ErrRemoteFetch wraps network and parsing failures of the remote feed,
	// including an empty result set.
	ErrRemoteFetch = errors.New("failed to fetch remote feed")
	// ErrNoActiveData is returned by views when nothing has been ingested.
	ErrNoActiveData = errors.New("no active dataset")
	// ErrSourceDisabled is returned when an optional source is not configured.
	ErrSourceDisabled = errors.New("source not configured")
)

// SchemaError reports every required column absent from a source header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// IsSchemaError reports whether err carries a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
