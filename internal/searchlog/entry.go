// Package searchlog records every lookup attempt.
//
// Each attempt becomes an [Entry]. A [Recorder] tries to deliver the entry to
// a remote sheet endpoint through an ordered list of encodings and always
// keeps a copy in a local [Sink]. Entries whose delivery failed stay pending
// until the flusher re-sends them.
//
// Nothing here reaches for ambient state: the caller passes the [Session]
// that identifies the browser or CLI run and the sink that stores entries.
package searchlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetlookup/internal/sheet"
)

// Session identifies one visitor across several searches.
type Session string

// NewSession returns a fresh random session handle.
func NewSession() Session {
	return Session(uuid.NewString())
}

// ParseSession validates a session handle coming from a cookie or flag.
func ParseSession(s string) (Session, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return Session(id.String()), true
}

// Meta carries request details worth keeping with an entry.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Entry is one logged search attempt.
type Entry struct {
	ID           string            `json:"id"`
	SessionID    Session           `json:"sessionId"`
	SearchKey    string            `json:"searchKey"`
	Outcome      sheet.OutcomeType `json:"outcome"`
	DisplayName  string            `json:"displayName,omitempty"`
	IPAddress    string            `json:"ipAddress,omitempty"`
	UserAgent    string            `json:"userAgent,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	Delivered    bool              `json:"delivered"`
	DeliveredVia string            `json:"deliveredVia,omitempty"`
	Attempts     int               `json:"attempts"`
	LastError    string            `json:"lastError,omitempty"`
}

// NewEntry builds an undelivered entry for a finished lookup.
func NewEntry(session Session, searchKey string, outcome sheet.Outcome, meta Meta) Entry {
	return Entry{
		ID:          uuid.NewString(),
		SessionID:   session,
		SearchKey:   searchKey,
		Outcome:     outcome.Type,
		DisplayName: outcome.DisplayName,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}
}

// fields is the flat representation sent to the remote endpoint.
func (e Entry) fields() map[string]string {
	return map[string]string{
		"id":          e.ID,
		"sessionId":   string(e.SessionID),
		"searchKey":   e.SearchKey,
		"outcome":     string(e.Outcome),
		"displayName": e.DisplayName,
		"userAgent":   e.UserAgent,
		"timestamp":   e.CreatedAt.Format(time.RFC3339),
	}
}
