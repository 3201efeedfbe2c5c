// Package docx extracts the text of uploaded Word (OOXML) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// maxPartSize bounds how much of a single archive part is read.
const maxPartSize = 64 << 20

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Extract returns one line per paragraph of the main document. The title
// from the document properties, when set, is the first line.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	raw, err := readPart(reader, documentPart)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", fmt.Errorf("%w: docx has no %s", domain.ErrInvalidInput, documentPart)
	}
	body, err := documentText(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	title := extractTitle(reader)
	if title == "" || strings.HasPrefix(body, title) {
		return body, nil
	}
	if body == "" {
		return title, nil
	}
	return title + "\n\n" + body, nil
}

// readPart returns the contents of the named archive part, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return content, nil
	}
	return nil, nil
}

// documentText walks the WordprocessingML token stream. Text runs are
// concatenated, tabs and breaks are kept, and each paragraph ends a line.
// Paragraphs nested in tables are included.
func documentText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		lines  []string
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			case "br", "cr":
				line.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					lines = append(lines, s)
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		lines = append(lines, s)
	}

	return strings.Join(lines, "\n"), nil
}

// coreProperties is the subset of docProps/core.xml that is read.
type coreProperties struct {
	Title string `xml:"title"`
}

// extractTitle returns the document title property, or empty.
func extractTitle(reader *zip.Reader) string {
	raw, err := readPart(reader, corePart)
	if err != nil || raw == nil {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(raw, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
