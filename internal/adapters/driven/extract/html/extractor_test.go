package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

func TestExtractor_SupportedMIMETypes(t *testing.T) {
	e := New()

	types := e.SupportedMIMETypes()

	assert.Contains(t, types, "text/html")
	assert.Contains(t, types, "application/xhtml+xml")
}

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs",
			input:    "<html><body><p>Invoice INV-7</p><p>Total due: 120 EUR</p></body></html>",
			expected: "Invoice INV-7\nTotal due: 120 EUR",
		},
		{
			name:     "title kept as first line",
			input:    "<html><head><title>Order 55</title></head><body><div>Please quote 40 units.</div></body></html>",
			expected: "Order 55\n\nPlease quote 40 units.",
		},
		{
			name:     "title repeated in body",
			input:    "<html><head><title>Notice</title></head><body><h1>Notice</h1><p>New rule applies.</p></body></html>",
			expected: "Notice\nNew rule applies.",
		},
		{
			name:     "scripts styles and comments removed",
			input:    "<body><script>alert(1)</script><style>p{}</style><!-- hidden --><p>Visible</p></body>",
			expected: "Visible",
		},
		{
			name:     "entities decoded",
			input:    "<p>Smith &amp; Sons &lt;sales&gt; &euro;5</p>",
			expected: "Smith & Sons <sales> €5",
		},
		{
			name:     "line breaks and table cells",
			input:    "<p>line one<br>line two</p><table><tr><td>Qty</td><td>10</td></tr></table>",
			expected: "line one\nline two\nQty 10",
		},
		{
			name:     "whitespace collapsed",
			input:    "<p>  too    many \t spaces  </p>",
			expected: "too many spaces",
		},
		{
			name:     "title only",
			input:    "<html><head><title>Empty</title></head><body></body></html>",
			expected: "Empty",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := e.Extract(context.Background(), []byte(tt.input))

			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestExtractor_InvalidUTF8(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x3c})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
