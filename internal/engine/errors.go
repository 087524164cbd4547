package engine

import "fmt"

// ParseError indicates the raw input could not be turned into a table.
// It is terminal for the upload attempt; the user must re-upload.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse csv: " + e.Reason
}

// CommitError wraps a failure reported by the storage collaborator.
// The session stays in Parsed so the commit can be retried.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// RowDiagnostic records a non-fatal anomaly observed while parsing a row.
// Rows with a cell-count mismatch are kept (padded, extras preserved) and
// surfaced to the caller instead of being silently dropped.
type RowDiagnostic struct {
	Row     int    `json:"row"` // zero-based data row index
	Cells   int    `json:"cells"`
	Want    int    `json:"want"`
	Message string `json:"message"`
}
