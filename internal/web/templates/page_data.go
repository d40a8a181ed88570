// Package templates renders the lookup screen.
package templates

import (
	"strconv"
	"time"
)

// Mode selects what the status panel shows.
type Mode string

const (
	ModeIdle     Mode = ""
	ModePrompt   Mode = "prompt"
	ModeFound    Mode = "found"
	ModeNotFound Mode = "not_found"
	ModeError    Mode = "error"
)

// Panel texts shown to the person at the scanner.
const (
	PromptText   = "Please enter a search term"
	NotFoundText = "NOT A VALID PASS ENTRY"
	ErrorPrefix  = "Error fetching data: "
)

// PageData is everything the lookup page needs.
type PageData struct {
	Query        string
	Mode         Mode
	DisplayName  string
	DisplayValue string

	// Set for ModeError.
	ErrorMessage string
	ErrorAction  string
	ErrorCode    string

	// Reset sends the browser back to the empty form after a result.
	// Anything under a second disables it.
	Reset time.Duration
}

func (d PageData) resets() bool {
	return d.Reset >= time.Second && d.Mode != ModeIdle && d.Mode != ModePrompt
}

func (d PageData) refreshContent() string {
	return strconv.Itoa(int(d.Reset/time.Second)) + ";url=/"
}
