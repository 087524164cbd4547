package engine

import (
	"errors"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "parse error maps to PARSE001",
			err:         &ParseError{Reason: "need a header row and at least one data row"},
			wantCode:    "PARSE001",
			wantMessage: "The file needs a header row and at least one data row",
		},
		{
			name:        "unknown type maps to VAL001",
			err:         errors.New("could not determine the data type; select an entity type before committing"),
			wantCode:    "VAL001",
			wantMessage: "The data type could not be detected from the headers",
		},
		{
			name:        "anchor failure maps to VAL002",
			err:         errors.New("orders data requires at least one of these columns to be mapped: id, name, total_price, email"),
			wantCode:    "VAL002",
			wantMessage: "A key column for this data type is not mapped",
		},
		{
			name:        "expired session maps to SES001",
			err:         errors.New("session not found: 1b4e28ba"),
			wantCode:    "SES001",
			wantMessage: "The import session was not found",
		},
		{
			name:        "wrapped database error keeps its DB code",
			err:         &CommitError{Err: errors.New("dial tcp: connection refused")},
			wantCode:    "DB003",
			wantMessage: "Unable to connect to the database",
		},
		{
			name:        "generic commit failure maps to COMMIT001",
			err:         &CommitError{Err: errors.New("disk quota exhausted")},
			wantCode:    "COMMIT001",
			wantMessage: "The import could not be saved",
		},
		{
			name:        "file too large maps to FILE001",
			err:         errors.New("file too large: 20MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "The file exceeds the maximum upload size",
		},
		{
			name:        "rate limit maps to RATE001",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SESSION NOT FOUND: abc"),
			wantCode:    "SES001",
			wantMessage: "The import session was not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("session not found: abc")
	result := FormatUserError(err)

	expected := "The import session was not found (Code: SES001). The session may have expired. Upload the file again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("no columns are mapped to schema fields"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
