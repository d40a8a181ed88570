package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("ITS_ID,Name\n1,Alice\n"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, srv.Client(), time.Second, 0)
	text, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ITS_ID,Name\n1,Alice\n", text)
}

func TestFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, srv.Client(), time.Second, 0).Fetch(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, err.Error(), "sheet fetch failed")
}

func TestFetcher_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, srv.Client(), time.Second, 16).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrSheetTooLarge)
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewFetcher(srv.URL, srv.Client(), 20*time.Millisecond, 0).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatic(t *testing.T) {
	text, err := Static("a,b").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a,b", text)
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("ITS_ID,Name\n"), "ITS_ID,Name\n"},
		{"bom stripped", []byte("\xEF\xBB\xBFITS_ID,Name\n"), "ITS_ID,Name\n"},
		{"invalid utf8 replaced", []byte("1,Ren\xE9\n"), "1,Ren�\n"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestFetcher_StripsBOM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\xEF\xBB\xBFITS_ID\n7\n"))
	}))
	defer srv.Close()

	text, err := NewFetcher(srv.URL, srv.Client(), time.Second, 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ITS_ID\n7\n", text)
}
