package engine

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. When users encounter errors, they can quote
// the error code to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
//	PARSE001-PARSE099  CSV parsing failures (terminal; re-upload required)
//	VAL001-VAL099      validation failures (correctable in the session)
//	SES001-SES099      session lifecycle errors
//	COMMIT001          commit handoff failures (retryable)
//	DB001-DB099        database errors surfaced through a commit
//	FILE001-FILE099    upload handling errors
//	RATE001            request throttling
//	ERR000             fallback when no pattern matches
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so more specific patterns are listed before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Parse errors. A ParseError is terminal for the attempt.
	{
		pattern: "need a header row",
		msg: UserMessage{
			Message: "The file needs a header row and at least one data row",
			Action:  "Check that the CSV is not empty and includes column headers",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Ensure the file is comma-separated UTF-8 text",
			Code:    "PARSE002",
		},
	},

	// Validation errors. These are correctable: fix the mapping or the
	// entity type and commit again.
	{
		pattern: "could not determine the data type",
		msg: UserMessage{
			Message: "The data type could not be detected from the headers",
			Action:  "Select an entity type manually before committing",
			Code:    "VAL001",
		},
	},
	{
		pattern: "at least one of these columns",
		msg: UserMessage{
			Message: "A key column for this data type is not mapped",
			Action:  "Map one of the listed columns in the preview",
			Code:    "VAL002",
		},
	},
	{
		pattern: "no columns are mapped",
		msg: UserMessage{
			Message: "No columns are mapped to schema fields",
			Action:  "Map at least one column in the preview",
			Code:    "VAL003",
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The file contains no data rows",
			Action:  "Upload a CSV with at least one row below the header",
			Code:    "VAL004",
		},
	},
	{
		pattern: "the maximum is",
		msg: UserMessage{
			Message: "The dataset exceeds the maximum row count",
			Action:  "Split the file and commit it in smaller parts",
			Code:    "VAL005",
		},
	},
	{
		pattern: "validation failed",
		msg: UserMessage{
			Message: "The dataset did not pass validation",
			Action:  "Resolve the listed validation errors and commit again",
			Code:    "VAL006",
		},
	},

	// Session lifecycle errors.
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "The import session was not found",
			Action:  "The session may have expired. Upload the file again",
			Code:    "SES001",
		},
	},
	{
		pattern: "only a parsed session can commit",
		msg: UserMessage{
			Message: "The session is not in a committable state",
			Action:  "Wait for the current commit to finish or start over",
			Code:    "SES002",
		},
	},
	{
		pattern: "unknown field",
		msg: UserMessage{
			Message: "The selected field does not exist in this schema",
			Action:  "Pick a field from the schema field list",
			Code:    "SES003",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "The selected column does not exist in this file",
			Action:  "Refresh the preview and try again",
			Code:    "SES004",
		},
	},

	// Database errors surfaced through a commit. Specific before general.
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Review your data for duplicate key values",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},

	// Commit handoff. General pattern after the DB specifics so a wrapped
	// database error keeps its DB code.
	{
		pattern: "commit:",
		msg: UserMessage{
			Message: "The import could not be saved",
			Action:  "The session is unchanged. Try committing again",
			Code:    "COMMIT001",
		},
	},

	// Upload handling errors.
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "FILE003",
		},
	},

	// Rate limiting.
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown
// to users. Returns true for any match other than the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
