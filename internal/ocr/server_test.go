package ocr

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	text string
	err  error
	got  []byte
}

func (f *fakeEngine) Recognize(_ context.Context, image []byte) (string, error) {
	f.got = image
	return f.text, f.err
}

func TestHandler_Health(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&fakeEngine{}, 0, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHandler_Recognize(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		engine     *fakeEngine
		maxBytes   int64
		wantStatus int
		wantBody   string
	}{
		{name: "ok", method: http.MethodPost, body: "img", engine: &fakeEngine{text: "ITEM 1. BUSINESS"}, wantStatus: http.StatusOK, wantBody: `"text":"ITEM 1. BUSINESS"`},
		{name: "empty body", method: http.MethodPost, body: "", engine: &fakeEngine{}, wantStatus: http.StatusBadRequest, wantBody: "empty image"},
		{name: "engine failure", method: http.MethodPost, body: "img", engine: &fakeEngine{err: errors.New("tesseract: bad image")}, wantStatus: http.StatusInternalServerError, wantBody: "bad image"},
		{name: "too large", method: http.MethodPost, body: "0123456789", engine: &fakeEngine{}, maxBytes: 4, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "wrong method", method: http.MethodGet, engine: &fakeEngine{}, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/ocr", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			NewHandler(tt.engine, tt.maxBytes, nil).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestClientAgainstHandler(t *testing.T) {
	engine := &fakeEngine{text: "Acme Corporation\nAnnual Report"}
	srv := httptest.NewServer(NewHandler(engine, 0, nil))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	c := NewClient(srv.URL+"/ocr", 5*time.Second, nil)
	text, err := c.Recognize(context.Background(), buf.Bytes(), "png")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation\nAnnual Report", text)
	assert.Equal(t, buf.Bytes(), engine.got)
}
