package core

// error_messages.go maps technical errors to messages for the person at the
// lookup screen. Codes are quoted to support staff.
//
// # Lookup Errors (LKP001-LKP099)
//
//	LKP001 - Key column missing: the sheet has no ITS ID column
//	         Action: Ask the sheet owner to restore the ITS ID header
//	         Patterns: "column not found"
//
//	LKP002 - Empty sheet: the sheet export had no data
//	         Action: Check that the sheet is still published
//	         Patterns: "empty input"
//
//	LKP003 - Empty ID: nothing was entered
//	         Action: Scan or type an ID
//	         Patterns: "empty search key"
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Sheet host rejected the request
//	         Patterns: "unexpected status"
//
//	SRC002 - Sheet host unreachable
//	         Patterns: "connection refused", "no such host"
//
//	SRC003 - Sheet export too large
//	         Patterns: "too large"
//
//	SRC004 - Request timed out
//	         Patterns: "context deadline exceeded", "timeout"
//
//	SRC005 - Request cancelled
//	         Patterns: "context canceled"
//
// # Search Log Errors (LOG001-LOG099)
//
//	LOG001 - Search log delivery failed
//	         Patterns: "search log delivery failed"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Returned when nothing matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns go before general ones.

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

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Search log wraps per-attempt errors, so it must match first
	{
		pattern: "search log delivery failed",
		msg: UserMessage{
			Message: "The search could not be logged remotely",
			Action:  "It will be retried automatically",
			Code:    "LOG001",
		},
	},

	// Lookup
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "The sheet has no ITS ID column",
			Action:  "Ask the sheet owner to restore the ITS ID header",
			Code:    "LKP001",
		},
	},
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "No data was received from the sheet",
			Action:  "Check that the sheet is still published",
			Code:    "LKP002",
		},
	},
	{
		pattern: "empty search key",
		msg: UserMessage{
			Message: "No ID was entered",
			Action:  "Scan or type an ID",
			Code:    "LKP003",
		},
	},

	// Source
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The sheet could not be loaded",
			Action:  "Check that the sheet is still published",
			Code:    "SRC001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The sheet host is unreachable",
			Action:  "Please try again in a few moments",
			Code:    "SRC002",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "The sheet host is unreachable",
			Action:  "Check the network connection",
			Code:    "SRC002",
		},
	},
	{
		pattern: "too large",
		msg: UserMessage{
			Message: "The sheet is larger than allowed",
			Action:  "Raise SHEET_MAX_BYTES or trim the sheet",
			Code:    "SRC003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "SRC004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "SRC004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "SRC005",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
