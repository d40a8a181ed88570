package core

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetlookup/internal/logging"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
)

// Fetcher returns the current CSV export.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Service performs lookups and records each one.
type Service struct {
	fetcher  Fetcher
	match    sheet.HeaderMatch
	recorder *searchlog.Recorder
}

// NewService creates a Service. A nil recorder disables search logging.
func NewService(fetcher Fetcher, match sheet.HeaderMatch, recorder *searchlog.Recorder) *Service {
	return &Service{fetcher: fetcher, match: match, recorder: recorder}
}

// Lookup fetches the sheet, searches it for searchKey and records the
// attempt under session. Every failure comes back as an error outcome.
func (s *Service) Lookup(ctx context.Context, session searchlog.Session, searchKey string) sheet.Outcome {
	logger := logging.WithFields(ctx, "session", session)
	start := time.Now()

	outcome := s.lookup(ctx, searchKey)

	attrs := []any{
		"outcome", outcome.Type,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err := outcome.Err(); err != nil {
		logger.Warn("lookup failed", append(attrs, "error", err)...)
	} else {
		logger.Info("lookup finished", attrs...)
	}

	if s.recorder != nil {
		meta := searchlog.Meta{
			IPAddress: IPAddressFromContext(ctx),
			UserAgent: UserAgentFromContext(ctx),
		}
		s.recorder.Record(ctx, searchlog.NewEntry(session, searchKey, outcome, meta))
	}
	return outcome
}

func (s *Service) lookup(ctx context.Context, searchKey string) sheet.Outcome {
	if strings.TrimSpace(searchKey) == "" {
		return sheet.ErrorOutcome(sheet.ErrEmptySearchKey)
	}

	text, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return sheet.ErrorOutcome(err)
	}
	return sheet.Lookup(text, searchKey, s.match)
}

// History returns recent search log entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]searchlog.Entry, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.History(ctx, limit)
}
