// Package core provides the lookup operation shared by the web server and
// the CLI.
//
// A [Service] ties together three pieces that know nothing of each other:
//
//   - a [Fetcher] that returns the current CSV export of the roster sheet
//   - the sheet package, which parses the export and finds the row for an ID
//   - a searchlog.Recorder, which delivers and stores one entry per search
//
// [Service.Lookup] never returns an error. Every failure becomes a
// sheet.Outcome of type "error"; callers turn it into something a person can
// read with [MapError] or [FormatUserError].
//
// Request metadata (client IP, User-Agent) travels in the context and is
// copied into the search log entry. See [ContextWithIPAddress].
package core
