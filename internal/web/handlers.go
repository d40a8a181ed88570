package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetlookup/internal/core"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
	"github.com/JonMunkholm/sheetlookup/internal/web/templates"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleIndex renders the lookup page. With ?id= it runs one lookup and
// shows the result until the page resets itself.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := templates.PageData{Reset: s.cfg.Lookup.DisplayReset()}

	query := r.URL.Query()
	if query.Has("id") {
		data.Query = strings.TrimSpace(query.Get("id"))
		if data.Query == "" {
			data.Mode = templates.ModePrompt
		} else {
			ctx := WithRequestMetadata(r.Context(), r)
			outcome := s.service.Lookup(ctx, sessionFromContext(ctx), data.Query)
			s.fillOutcome(r, &data, outcome)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logError(r, core.NewUserError(err), http.StatusOK)
	}
}

func (s *Server) fillOutcome(r *http.Request, data *templates.PageData, outcome sheet.Outcome) {
	switch outcome.Type {
	case sheet.OutcomeFound:
		data.Mode = templates.ModeFound
		data.DisplayName = outcome.DisplayName
		data.DisplayValue = outcome.DisplayValue
	case sheet.OutcomeNotFound:
		data.Mode = templates.ModeNotFound
	default:
		userErr := core.NewUserError(outcome.Err())
		logError(r, userErr, http.StatusOK)
		data.Mode = templates.ModeError
		data.ErrorMessage = userErr.User.Message
		data.ErrorAction = userErr.User.Action
		data.ErrorCode = userErr.User.Code
	}
}

// LookupResponse is the JSON body of /api/lookup. Reason and Action carry
// the user-facing message for error outcomes.
//
// Error outcomes caused by the sheet contents answer 422; everything else
// (fetch failures, timeouts) answers 502.
type LookupResponse struct {
	sheet.Outcome
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
}

func (s *Server) handleAPILookup(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		s.respondError(w, r, sheet.ErrEmptySearchKey, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	outcome := s.service.Lookup(ctx, sessionFromContext(ctx), id)

	if err := outcome.Err(); err != nil {
		status := http.StatusBadGateway
		if sheet.IsInputError(err) {
			status = http.StatusUnprocessableEntity
		}
		userErr := core.NewUserError(err)
		logError(r, userErr, status)
		outcome.Reason = userErr.User.Message
		writeJSON(w, r, status, LookupResponse{Outcome: outcome, Action: userErr.User.Action, Code: userErr.User.Code})
		return
	}
	writeJSON(w, r, http.StatusOK, LookupResponse{Outcome: outcome})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []searchlog.Entry{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
