package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// serviceName is reported by the root endpoint.
const serviceName = "docflow document processing service"

// defaultHistoryLimit is used when /history has no limit parameter.
const defaultHistoryLimit = 10

// textRequest is the body of /process/text and /classify.
type textRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	ModelID  string         `json:"model_id"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"status":  "running",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Health(r.Context()))
}

func (s *Server) handleProcessText(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTextRequest(w, r)
	if !ok {
		return
	}

	result := s.pipeline.Process(r.Context(), driving.ProcessRequest{
		Content:     req.Content,
		ContentType: "auto",
		Metadata:    req.Metadata,
		ModelID:     req.ModelID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTextRequest(w, r)
	if !ok {
		return
	}

	result := s.pipeline.Classify(r.Context(), driving.ClassifyRequest{
		Content:  req.Content,
		Metadata: req.Metadata,
		ModelID:  req.ModelID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProcessFile(w http.ResponseWriter, r *http.Request) {
	// Headroom for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Field required: file")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("File processing failed: %v", err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	content, status, detail := s.fileText(r, contentType, raw)
	if status != http.StatusOK {
		writeError(w, status, detail)
		return
	}

	metadata := parseMetadata(r.FormValue("metadata"))
	metadata["filename"] = header.Filename
	metadata["content_type"] = contentType

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result := s.pipeline.Process(r.Context(), driving.ProcessRequest{
		Content:     content,
		ContentType: contentType,
		Metadata:    metadata,
		ModelID:     strings.TrimSpace(r.FormValue("model_id")),
	})
	writeJSON(w, http.StatusOK, result)
}

// fileText turns an upload into pipeline text. Registered content types go
// through their extractor; everything else must already be UTF-8.
func (s *Server) fileText(r *http.Request, contentType string, raw []byte) (string, int, string) {
	if s.extractor != nil && contentType != "" {
		if ext, ok := s.extractor.Lookup(contentType); ok {
			text, err := ext.Extract(r.Context(), raw)
			switch {
			case err == nil:
				return text, http.StatusOK, ""
			case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
				return "", http.StatusBadRequest, fmt.Sprintf("File content could not be extracted: %v", err)
			default:
				logger.Error("http: extracting %s: %v", contentType, err)
				return "", http.StatusInternalServerError, fmt.Sprintf("File processing failed: %v", err)
			}
		}
	}

	if !utf8.Valid(raw) {
		return "", http.StatusBadRequest, "File content is not text-readable"
	}
	return string(raw), http.StatusOK, ""
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = n
	}

	filter := driving.HistoryFilter{Limit: limit}
	query := r.URL.Query()
	if raw := query.Get("type"); raw != "" {
		format, ok := domain.ParseDocumentFormat(raw)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Unknown document type: %s", raw))
			return
		}
		filter.DocumentType = format
	}
	if raw := query.Get("intent"); raw != "" {
		intent, ok := domain.ParseIntent(raw)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Unknown intent: %s", raw))
			return
		}
		filter.Intent = intent
	}

	var result driving.HistoryResult
	if filter.IsEmpty() {
		result = s.pipeline.History(r.Context(), limit)
	} else {
		result = s.pipeline.Browse(r.Context(), filter)
	}
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	result := s.pipeline.GetEntry(r.Context(), r.PathValue("id"))
	if !result.Success {
		writeError(w, http.StatusNotFound, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	result := s.pipeline.Thread(r.Context(), r.PathValue("id"))
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	result := s.pipeline.Browse(r.Context(), driving.HistoryFilter{ConversationID: r.PathValue("id")})
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeTextRequest reads a JSON text request, writing a 422 on failure.
func decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return req, false
	}
	if req.Content == "" {
		writeError(w, http.StatusUnprocessableEntity, "Field required: content")
		return req, false
	}
	req.ModelID = strings.TrimSpace(req.ModelID)
	return req, true
}

// parseMetadata decodes the metadata form field as a JSON object, keeping
// anything else under raw_metadata.
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("http: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
