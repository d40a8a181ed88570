package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestPage_Modes(t *testing.T) {
	tests := []struct {
		name string
		data PageData
		want []string
		not  []string
	}{
		{
			name: "idle",
			data: PageData{Reset: 10 * time.Second},
			want: []string{`name="id"`, `value=""`},
			not:  []string{"statusDisplay", `http-equiv="refresh"`},
		},
		{
			name: "prompt",
			data: PageData{Mode: ModePrompt, Reset: 10 * time.Second},
			want: []string{`data-mode="prompt"`, PromptText},
			not:  []string{`http-equiv="refresh"`},
		},
		{
			name: "found escapes cells",
			data: PageData{Query: `1"2`, Mode: ModeFound, DisplayName: "Alice <Smith>", DisplayValue: "Checked in", Reset: 10 * time.Second},
			want: []string{
				`value="1&#34;2"`,
				"Alice &lt;Smith&gt; - Status: <b>Checked in</b>",
				`<meta http-equiv="refresh" content="10;url=/">`,
			},
		},
		{
			name: "not found",
			data: PageData{Mode: ModeNotFound, Reset: 3 * time.Second},
			want: []string{NotFoundText, `content="3;url=/"`},
		},
		{
			name: "error with code and action",
			data: PageData{Mode: ModeError, ErrorMessage: "The sheet could not be loaded", ErrorAction: "Try again", ErrorCode: "SRC001"},
			want: []string{
				"Error fetching data: The sheet could not be loaded",
				"<small>(Code: SRC001)</small>",
				"<p>Try again</p>",
			},
			not: []string{`http-equiv="refresh"`},
		},
		{
			name: "sub-second reset disabled",
			data: PageData{Mode: ModeFound, DisplayName: "A", DisplayValue: "B", Reset: 500 * time.Millisecond},
			not:  []string{`http-equiv="refresh"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, Page(tt.data))
			for _, s := range tt.want {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.not {
				assert.NotContains(t, html, s)
			}
		})
	}
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("Too many <requests>", "", "RATE001"))
	assert.Equal(t,
		`<div class="alert error" role="alert"><strong>Too many &lt;requests&gt;</strong><small>(Code: RATE001)</small></div>`,
		html)
}
