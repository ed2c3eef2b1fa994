package ocr

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultMaxImageBytes bounds one uploaded page image
const DefaultMaxImageBytes = 32 << 20

// Engine recognizes the text in one encoded image
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /ocr and GET /health
type Handler struct {
	engine   Engine
	maxBytes int64
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewHandler wraps engine in the HTTP protocol Client speaks
func NewHandler(engine Engine, maxBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	h := &Handler{engine: engine, maxBytes: maxBytes, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /ocr", h.recognize)
	h.mux.HandleFunc("GET /health", h.health)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) recognize(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "image too large"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error()})
		return
	}
	if len(body) == 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty image"})
		return
	}

	text, err := h.engine.Recognize(r.Context(), body)
	if err != nil {
		h.logger.Warn("ocr.engine.error", "req_id", reqID, "bytes", len(body), "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	h.logger.Info("ocr.engine.ok",
		"req_id", reqID,
		"bytes", len(body),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, Response{Text: text})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("ocr.http.write_error", "error", err)
	}
}
