package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// HTTPClient calls a remote annotator service.
//
// Request:  POST {URL} {"text": "..."}
// Response: {"entities": [{"label": "ORG", "start": 0, "end": 9}, ...]}
//
// The service reports character (rune) offsets, as spaCy does; they are
// converted to byte offsets before being returned.
type HTTPClient struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// NewHTTPClient creates a client for the annotator at url. The timeout bounds
// a whole request including reading the body.
func NewHTTPClient(url string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

type annotateRequest struct {
	Text string `json:"text"`
}

type annotateResponse struct {
	Entities []Span `json:"entities"`
}

// Annotate implements Annotator.
func (c *HTTPClient) Annotate(ctx context.Context, text string) ([]Span, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Logger.Warn("nlp.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.Logger.Warn("nlp.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("nlp.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("annotator returned status %d", resp.StatusCode)
	}

	var out annotateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return runeSpansToBytes(text, out.Entities), nil
}

// runeSpansToBytes converts rune offsets to byte offsets. Spans that fall
// outside the text or are empty are dropped.
func runeSpansToBytes(text string, spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	// byteAt[i] is the byte offset of rune i; the final entry is len(text).
	byteAt := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))

	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End <= s.Start || s.End > len(byteAt)-1 {
			continue
		}
		out = append(out, Span{Label: s.Label, Start: byteAt[s.Start], End: byteAt[s.End]})
	}
	return out
}
