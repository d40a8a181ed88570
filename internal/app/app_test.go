package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetlookup/internal/config"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
	"github.com/JonMunkholm/sheetlookup/internal/source"
)

func TestHeaderMatch(t *testing.T) {
	got := HeaderMatch(config.LookupConfig{
		KeyHeaders:    []string{"ITS_ID", " Pass No ", ""},
		RemarkHeaders: []string{"Remarks"},
		NameHeaders:   nil,
	})
	want := sheet.HeaderMatch{
		Key:    []string{"its_id", "pass no"},
		Remark: []string{"remarks"},
		Name:   []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HeaderMatch() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushConfig(t *testing.T) {
	got := FlushConfig(config.SearchLogConfig{FlushInterval: time.Minute, FlushBatch: 5, RetentionDays: 2})
	assert.Equal(t, searchlog.FlushConfig{Interval: time.Minute, Batch: 5, Retention: 48 * time.Hour}, got)
}

func TestNew_LocalOnly(t *testing.T) {
	cfg := &config.Config{
		Lookup:    config.LookupConfig{KeyHeaders: []string{"its_id"}, RemarkHeaders: []string{"status"}},
		SearchLog: config.SearchLogConfig{MemoryLimit: 5},
	}

	a, err := New(context.Background(), cfg, source.Static("ITS_ID,Name,Status\n7,Dana,ok\n"))
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Recorder.Remote())

	out := a.Service.Lookup(context.Background(), searchlog.NewSession(), "7")
	require.True(t, out.Found())
	assert.Equal(t, "Dana", out.DisplayName)
	assert.Equal(t, "ok", out.DisplayValue)

	history, err := a.Service.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
