package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData is returned by enrichment when no record in the
	// whole run carries a usable price, so the city average is undefined.
	ErrInsufficientData = errors.New("no usable price data for value scoring")
)

// ConfigurationError marks an invalid pipeline setting. Detected before any
// record is processed; fatal for the run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Field + ": " + e.Reason
}
