package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetlookup/internal/config"
	"github.com/JonMunkholm/sheetlookup/internal/core"
	"github.com/JonMunkholm/sheetlookup/internal/logging"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
	"github.com/JonMunkholm/sheetlookup/internal/source"
	webmw "github.com/JonMunkholm/sheetlookup/internal/web/middleware"
)

const roster = "ITS_ID,Full Name,Remarks\n" +
	"1001,Alice <Smith>,Checked in\n" +
	"1002,Bob Jones,Pending\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Lookup: config.LookupConfig{DisplayResetSeconds: 10},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
	}
}

type testEnv struct {
	server *Server
	sink   *searchlog.MemorySink
}

func newTestEnv(t *testing.T, fetcher core.Fetcher, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	sink := searchlog.NewMemorySink(50)
	svc := core.NewService(fetcher, sheet.DefaultHeaderMatch, searchlog.NewRecorder(nil, sink))
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &testEnv{server: s, sink: sink}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func TestIndex_EmptyForm(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="id"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, `statusDisplay`)
	assert.Equal(t, 0, env.sink.Len())
}

func TestIndex_Found(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/?id=1001")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Alice &lt;Smith&gt; - Status: <b>Checked in</b>")
	assert.Contains(t, body, `<meta http-equiv="refresh" content="10;url=/">`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, 1, env.sink.Len())
}

func TestIndex_NotFound(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/?id=4242")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT A VALID PASS ENTRY")
}

func TestIndex_Error(t *testing.T) {
	env := newTestEnv(t, source.FetchFunc(func(context.Context) (string, error) {
		return "", &source.StatusError{Code: 500}
	}), nil)

	rec := env.get("/?id=1001")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Error fetching data: The sheet could not be loaded")
	assert.Contains(t, body, "SRC001")
	assert.NotContains(t, body, "unexpected status", "technical error stays in the logs")
}

func TestIndex_BlankIDPrompts(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/?id=++")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a search term")
	assert.NotContains(t, rec.Body.String(), `http-equiv="refresh"`)
	assert.Equal(t, 0, env.sink.Len())
}

func TestIndex_ResetDisabled(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), func(c *config.Config) {
		c.Lookup.DisplayResetSeconds = 0
	})

	rec := env.get("/?id=1001")
	assert.NotContains(t, rec.Body.String(), `http-equiv="refresh"`)
}

func TestIndex_SessionIsLogged(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)
	session := searchlog.NewSession()

	req := httptest.NewRequest(http.MethodGet, "/?id=1002", nil)
	req.AddCookie(&http.Cookie{Name: webmw.SessionCookie, Value: string(session)})
	req.Header.Set("User-Agent", "scanner/2")
	env.do(req)

	entries, err := env.sink.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, session, entries[0].SessionID)
	assert.Equal(t, "1002", entries[0].SearchKey)
	assert.Equal(t, "scanner/2", entries[0].UserAgent)
	assert.Equal(t, "192.0.2.1", entries[0].IPAddress)
}

func TestAPILookup(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/api/lookup?id=1002")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got LookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sheet.OutcomeFound, got.Type)
	assert.Equal(t, "Bob Jones", got.DisplayName)
	assert.Equal(t, "Pending", got.DisplayValue)

	rec = env.get("/api/lookup?id=nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"not_found"}`, rec.Body.String())
}

func TestAPILookup_EmptyID(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/api/lookup?id=")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "LKP003", got.Code)
	assert.Equal(t, 0, env.sink.Len())
}

func TestAPILookup_SheetError(t *testing.T) {
	env := newTestEnv(t, source.Static("Name,Remarks\nAlice,ok\n"), nil)

	rec := env.get("/api/lookup?id=1001")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got LookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sheet.OutcomeError, got.Type)
	assert.Equal(t, "LKP001", got.Code)
	assert.Equal(t, "The sheet has no ITS ID column", got.Reason)
}

func TestAPILookup_FetchError(t *testing.T) {
	env := newTestEnv(t, source.FetchFunc(func(context.Context) (string, error) {
		return "", &source.StatusError{Code: 503}
	}), nil)

	rec := env.get("/api/lookup?id=1001")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var got LookupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sheet.OutcomeError, got.Type)
	assert.Equal(t, "SRC001", got.Code)
}

func TestRequestErrorLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{"mapped error logs at warn", &source.StatusError{Code: 500}, "WARN"},
		{"unmapped error logs at error", errors.New("disk on fire"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, source.FetchFunc(func(context.Context) (string, error) {
				return "", tt.err
			}), nil)

			var buf bytes.Buffer
			req := httptest.NewRequest(http.MethodGet, "/api/lookup?id=1001", nil)
			req = req.WithContext(logging.WithLogger(req.Context(), logging.New(&buf, "debug", "json")))
			env.do(req)

			var found bool
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				var rec map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &rec))
				if rec["msg"] == "request error" {
					found = true
					assert.Equal(t, tt.wantLevel, rec["level"])
					assert.Equal(t, tt.err.Error(), rec["error"])
				}
			}
			assert.True(t, found, "no request error line in %q", buf.String())
		})
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)
	env.get("/api/lookup?id=1001")
	env.get("/api/lookup?id=1002")

	rec := env.get("/api/history?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Entries []searchlog.Entry `json:"entries"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "1002", got.Entries[0].SearchKey)
}

func TestHistory_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/history").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[],"count":0}`, rec.Body.String())

	// Lookups stay open.
	assert.Equal(t, http.StatusOK, env.get("/api/lookup?id=1001").Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)

	rec := env.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), nil)
	rec := env.get("/healthz")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, contentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))

	env = newTestEnv(t, source.Static(roster), func(c *config.Config) { c.Security.EnableCSP = false })
	assert.Empty(t, env.get("/healthz").Header().Get("Content-Security-Policy"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, source.Static(roster), func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	})

	assert.Equal(t, http.StatusOK, env.get("/healthz").Code)
	assert.Equal(t, http.StatusOK, env.get("/healthz").Code)

	rec := env.get("/api/lookup?id=1001")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rec.Body.String(), "RATE001"))

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	assert.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, time.Minute)
	defer rl.close()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))
}
