// Package source downloads the published spreadsheet export.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/sheetlookup/internal/logging"
)

// DefaultMaxBytes bounds the export when no limit is configured.
const DefaultMaxBytes = 10 << 20

// ErrSheetTooLarge is returned when the export exceeds the configured size.
var ErrSheetTooLarge = errors.New("sheet export too large")

// StatusError reports a non-2xx response from the sheet host.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheet fetch failed: unexpected status %d", e.Code)
}

// Fetcher downloads CSV text from a fixed URL.
type Fetcher struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewFetcher returns a Fetcher for url. A nil client uses http.DefaultClient.
func NewFetcher(url string, client *http.Client, timeout time.Duration, maxBytes int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{url: url, client: client, timeout: timeout, maxBytes: maxBytes}
}

// Fetch performs one GET of the export and returns its body.
// An empty body is returned as "" with no error; the caller decides
// whether that is a failure.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("sheet fetch failed: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sheet fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("sheet fetch failed: read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrSheetTooLarge, f.maxBytes)
	}

	logging.FromContext(ctx).Debug("sheet fetched",
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Clean(body), nil
}

const utf8BOM = "\uFEFF"

// Clean drops a leading UTF-8 byte order mark and replaces invalid UTF-8
// with U+FFFD. Exports saved from Excel carry the BOM.
func Clean(data []byte) string {
	text := strings.TrimPrefix(string(data), utf8BOM)
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "\uFFFD")
}

// FetchFunc adapts a function to the fetch signature used by callers.
type FetchFunc func(ctx context.Context) (string, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context) (string, error) { return f(ctx) }

// Static returns a FetchFunc that always yields text. The CLI uses it for
// local files.
func Static(text string) FetchFunc {
	return func(context.Context) (string, error) { return text, nil }
}
