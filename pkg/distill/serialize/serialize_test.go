package serialize_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshelf/pdfdistill/pkg/distill/serialize"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf to lf", in: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "bare cr to lf", in: "a\rb", want: "a\nb\n"},
		{name: "trailing spaces stripped", in: "line one   \n  indented\t\n", want: "line one\n  indented\n"},
		{name: "single trailing newline", in: "text\n\n\n", want: "text\n"},
		{name: "empty stays empty", in: "", want: ""},
		{name: "whitespace only collapses to empty", in: "   \n\t\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serialize.Normalize(tt.in))
		})
	}
}

func TestNormalizeNFC(t *testing.T) {
	// e + combining acute accent composes to a single rune.
	in := "café"
	got := serialize.Normalize(in)
	assert.Equal(t, "café\n", got)
}

func TestTablesToDelimited(t *testing.T) {
	in := strings.Join([]string{
		"Intro paragraph.",
		"| Name | Qty |",
		"| --- | ---: |",
		"| ink | 2 |",
		"| paper | 10 |",
		"Outro.",
	}, "\n")

	got := serialize.TablesToDelimited(in, "\t")
	want := strings.Join([]string{
		"Intro paragraph.",
		"Name\tQty",
		"ink\t2",
		"paper\t10",
		"Outro.",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestTablesToDelimitedCustomDelimiter(t *testing.T) {
	in := "| a | b |\n|---|---|\n| 1 | 2 |"
	got := serialize.TablesToDelimited(in, ";")
	assert.Equal(t, "a;b\n1;2", got)
}

func TestTablesToDelimitedLeavesPipesInProse(t *testing.T) {
	in := "either | or, but not a table"
	assert.Equal(t, in, serialize.TablesToDelimited(in, "\t"))
}

func TestRenderText(t *testing.T) {
	in := "| h1 | h2 |\r\n| --- | --- |\r\n| v1 | v2 |\r\n"
	got := serialize.RenderText(in, "")
	assert.Equal(t, "h1\th2\nv1\tv2\n", got)
}

func TestRenderMarkdownWithoutHeader(t *testing.T) {
	got, err := serialize.RenderMarkdown("# Title\r\n\r\nBody.", nil)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody.\n", got)
}

func TestRenderMarkdownWithHeader(t *testing.T) {
	fm := &serialize.FrontMatter{
		Source:      "data/raw/es/doc.pdf",
		Language:    "es",
		Pages:       3,
		Characters:  120,
		ConvertedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	got, err := serialize.RenderMarkdown("Body.", fm)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "---\n"))
	assert.Contains(t, got, "source: data/raw/es/doc.pdf")
	assert.Contains(t, got, "language: es")
	assert.Contains(t, got, "pages: 3")
	assert.Contains(t, got, "characters: 120")
	assert.True(t, strings.HasSuffix(got, "---\n\nBody.\n"))
}
