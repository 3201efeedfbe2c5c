package pdf

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name string
	args []string
	// sawFile records whether the input file existed while the command ran.
	sawFile bool
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	if len(args) >= 2 {
		_, err := os.Stat(args[len(args)-2])
		m.sawFile = err == nil
	}
	return m.output, m.err
}

var fakePDF = []byte("%PDF-1.4 fake pdf content")

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.IsType(t, execRunner{}, extractor.runner)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Equal(t, []string{"application/pdf"}, mimeTypes)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}

func TestExtract_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Invoice INV-1\nTotal: 100\f\fTerms: net 30\n\f")}
	extractor := NewWithRunner(runner)

	text, err := extractor.Extract(context.Background(), fakePDF)
	require.NoError(t, err)

	assert.Equal(t, "=== Page 1 ===\nInvoice INV-1\nTotal: 100\n\n=== Page 3 ===\nTerms: net 30", text)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.True(t, runner.sawFile)

	_, err = os.Stat(runner.args[len(runner.args)-2])
	assert.True(t, os.IsNotExist(err), "temp file should be removed")
}

func TestExtract_NotAPDF(t *testing.T) {
	runner := &mockRunner{}
	_, err := NewWithRunner(runner).Extract(context.Background(), []byte("hello"))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, runner.name, "runner should not be called")
}

func TestExtract_NoText(t *testing.T) {
	runner := &mockRunner{output: []byte("\f  \f")}
	_, err := NewWithRunner(runner).Extract(context.Background(), fakePDF)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "no extractable text")
}

func TestExtract_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}
	_, err := NewWithRunner(runner).Extract(context.Background(), fakePDF)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Contains(t, err.Error(), "pdftotext crashed")
}

func TestFormatPages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"single page without form feed", "hello\n", "=== Page 1 ===\nhello"},
		{"two pages", "one\ftwo\f", "=== Page 1 ===\none\n\n=== Page 2 ===\ntwo"},
		{"blank middle page keeps numbering", "a\f\n\fc", "=== Page 1 ===\na\n\n=== Page 3 ===\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPages(tt.raw))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestExecRunner_MissingTool(t *testing.T) {
	_, err := execRunner{}.Run(context.Background(), "docflow-no-such-tool-xyz")
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

// Integration test - only runs if pdftotext is available.
func TestCheckAvailable(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}
	assert.NoError(t, CheckAvailable())
}
