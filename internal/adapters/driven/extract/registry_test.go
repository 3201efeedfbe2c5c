package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/eml"
	"github.com/custodia-labs/docflow/internal/adapters/driven/extract/pdf"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

type stubExtractor struct {
	types []string
	text  string
}

func (s *stubExtractor) SupportedMIMETypes() []string { return s.types }

func (s *stubExtractor) Extract(context.Context, []byte) (string, error) {
	return s.text, nil
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(pdf.New(), eml.New())

	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/pdf", true},
		{"Application/PDF", true},
		{"message/rfc822", true},
		{"message/rfc822; charset=utf-8", true},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			_, ok := r.Lookup(tt.contentType)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRegistry_LaterWins(t *testing.T) {
	first := &stubExtractor{types: []string{"text/csv"}, text: "first"}
	second := &stubExtractor{types: []string{"text/csv"}, text: "second"}
	r := NewRegistry(first, second)

	text, err := r.Extract(context.Background(), "text/csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestRegistry_Extract_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract(context.Background(), "image/png", []byte{0x89})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_MIMETypes(t *testing.T) {
	r := NewRegistry(pdf.New(), eml.New())
	assert.Equal(t, []string{"application/pdf", "message/rfc822"}, r.MIMETypes())
}
