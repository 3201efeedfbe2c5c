package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

// contentTypeAuto marks text whose format the classifier decides.
const contentTypeAuto = "auto"

// extensionTypes covers extensions the platform MIME table may not know.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".eml":  "message/rfc822",
	".json": "application/json",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// errNoInput is returned when neither a file nor --text is given.
var errNoInput = errors.New("provide a file path, '-' for stdin, or --text")

// documentFlags are shared by process and classify.
type documentFlags struct {
	text         string
	model        string
	metadata     string
	thread       string
	conversation string
	asJSON       bool
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "document text (instead of a file)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model id, e.g. deepseek-chat or anthropic:claude-3-5-haiku-latest")
	cmd.Flags().StringVar(&f.metadata, "metadata", "", "caller metadata as a JSON object")
	cmd.Flags().StringVar(&f.thread, "thread", "", "thread id to tag recorded entries with")
	cmd.Flags().StringVar(&f.conversation, "conversation", "", "conversation id to tag recorded entries with")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "output the result as JSON")
}

// document is a resolved command line input.
type document struct {
	content     string
	contentType string
	metadata    map[string]any
}

// readDocument resolves the input from --text, stdin or a file and builds
// the metadata the same way the HTTP upload does.
func readDocument(cmd *cobra.Command, args []string, flags *documentFlags) (*document, error) {
	doc := &document{
		contentType: contentTypeAuto,
		metadata:    parseMetadata(flags.metadata),
	}

	switch {
	case flags.text != "":
		doc.content = flags.text

	case len(args) == 1 && args[0] == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if !utf8.Valid(raw) {
			return nil, errors.New("stdin is not text-readable")
		}
		doc.content = string(raw)

	case len(args) == 1:
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		doc.contentType = contentTypeFor(path)
		text, err := fileText(cmd, doc.contentType, raw)
		if err != nil {
			return nil, err
		}
		doc.content = text
		doc.metadata["filename"] = filepath.Base(path)
		doc.metadata["content_type"] = doc.contentType

	default:
		return nil, errNoInput
	}

	if strings.TrimSpace(doc.content) == "" {
		return nil, errors.New("document is empty")
	}
	if flags.thread != "" {
		doc.metadata["thread_id"] = flags.thread
	}
	if flags.conversation != "" {
		doc.metadata["conversation_id"] = flags.conversation
	}
	return doc, nil
}

// fileText extracts registered content types and requires UTF-8 otherwise.
func fileText(cmd *cobra.Command, contentType string, raw []byte) (string, error) {
	if fileExtractor != nil {
		if ext, ok := fileExtractor.Lookup(contentType); ok {
			text, err := ext.Extract(cmd.Context(), raw)
			if err != nil {
				return "", fmt.Errorf("extracting %s: %w", contentType, err)
			}
			return text, nil
		}
	}
	if !utf8.Valid(raw) {
		return "", errors.New("file content is not text-readable")
	}
	return string(raw), nil
}

// contentTypeFor guesses a MIME type from the file extension.
func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

// parseMetadata decodes a JSON object, keeping anything else under raw_metadata.
func parseMetadata(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
		return map[string]any{"raw_metadata": raw}
	}
	return m
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
