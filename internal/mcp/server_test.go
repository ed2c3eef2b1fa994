package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/filing-extractor/internal/config"
	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/pdf/pdftest"
)

type fakeExtractor struct {
	fields []filing.FieldKind
	err    error
	paths  []string
	ids    []string
}

func (f *fakeExtractor) ExtractFile(_ context.Context, path, id string) (*filing.DocumentExtraction, error) {
	f.paths = append(f.paths, path)
	f.ids = append(f.ids, id)
	if f.err != nil {
		return nil, f.err
	}
	if id == "" {
		id = "derived-id"
	}
	return &filing.DocumentExtraction{
		DocumentID: id,
		SourcePath: path,
		Hash:       "abc123",
		PageCount:  1,
		Fields: []filing.FieldRecord{
			{
				Field:      filing.FieldCompanyName,
				Value:      "Acme Corporation",
				Confidence: 0.9,
				Provenance: []filing.Provenance{{Section: filing.SectionCover, Page: 0, Text: "ACME CORPORATION", End: 16}},
			},
			{Field: filing.FieldAuditor, NotFound: filing.ReasonNoCandidates},
		},
		Degradations: []filing.Degradation{},
	}, nil
}

func (f *fakeExtractor) Fields() []filing.FieldKind { return f.fields }

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"
	cfg.Version = "1.0.0"
	return cfg
}

func newTestServer(t *testing.T, ex *fakeExtractor) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewServer(testConfig(dir), ex, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s, dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func writeFiling(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	data := pdftest.BuildWithInfo(map[string]string{"Title": "Acme Annual Report"},
		[]pdftest.Line{{Size: 18, Y: 720, Text: "ACME CORPORATION"}},
		[]pdftest.Line{{Size: 12, Y: 700, Text: "Item 1. Business"}},
	)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write filing: %v", err)
	}
	return path
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		dir         string
		extractor   Extractor
		expectError bool
	}{
		{name: "valid", dir: dir, extractor: &fakeExtractor{}},
		{name: "nil extractor", dir: dir, extractor: nil, expectError: true},
		{name: "missing directory", dir: filepath.Join(dir, "missing"), extractor: &fakeExtractor{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(testConfig(tt.dir), tt.extractor, nil)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.mcpServer == nil {
				t.Error("mcpServer should not be nil")
			}
		})
	}
}

func TestHandleExtractFields(t *testing.T) {
	ex := &fakeExtractor{}
	s, dir := newTestServer(t, ex)
	path := writeFiling(t, dir, "acme.pdf")

	result, err := s.handleExtractFields(context.Background(), callRequest(map[string]interface{}{
		"path":        "acme.pdf",
		"document_id": " doc-1 ",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextFromResult(result))
	}

	if len(ex.paths) != 1 || ex.paths[0] != path {
		t.Errorf("extractor called with %v, want [%s]", ex.paths, path)
	}
	if ex.ids[0] != "doc-1" {
		t.Errorf("document id = %q, want doc-1", ex.ids[0])
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(extractTextFromResult(result)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out["document_id"] != "doc-1" {
		t.Errorf("document_id = %v", out["document_id"])
	}
	fields, ok := out["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing from %v", out)
	}
	company, _ := fields["company_name"].(map[string]any)
	if company["value"] != "Acme Corporation" {
		t.Errorf("company_name = %v", company)
	}
}

func TestHandleExtractFields_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		extErr  error
		wantMsg string
	}{
		{name: "missing path", args: map[string]interface{}{}, wantMsg: "path"},
		{name: "outside directory", args: map[string]interface{}{"path": "/etc/passwd.pdf"}, wantMsg: "outside"},
		{
			name:    "unreadable filing",
			args:    map[string]interface{}{"path": "acme.pdf"},
			extErr:  errors.Unreadable("parse", stderrors.New("xref table corrupt")),
			wantMsg: "xref table corrupt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestServer(t, &fakeExtractor{err: tt.extErr})
			writeFiling(t, dir, "acme.pdf")

			result, err := s.handleExtractFields(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected tool error, got %s", extractTextFromResult(result))
			}
			if !strings.Contains(extractTextFromResult(result), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", extractTextFromResult(result), tt.wantMsg)
			}
		})
	}
}

func TestHandleValidate(t *testing.T) {
	s, dir := newTestServer(t, &fakeExtractor{})
	writeFiling(t, dir, "acme.pdf")
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{name: "valid filing", path: "acme.pdf", wantMsg: "Pages: 2"},
		{name: "document info", path: "acme.pdf", wantMsg: "Title: Acme Annual Report"},
		{name: "corrupt filing", path: "broken.pdf", wantMsg: "validation failed"},
		{name: "missing filing", path: "missing.pdf", wantMsg: "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleValidate(context.Background(), callRequest(map[string]interface{}{"path": tt.path}))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			text := extractTextFromResult(result)
			if !strings.Contains(text, tt.wantMsg) {
				t.Errorf("result %q does not contain %q", text, tt.wantMsg)
			}
		})
	}
}

func TestHandleFind(t *testing.T) {
	s, dir := newTestServer(t, &fakeExtractor{})
	writeFiling(t, dir, "b.pdf")
	writeFiling(t, dir, filepath.Join("2023", "a.pdf"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	result, err := s.handleFind(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "Found 2 filing(s)") {
		t.Errorf("unexpected listing: %s", text)
	}
	if strings.Contains(text, "notes.txt") {
		t.Errorf("listing includes non-PDF: %s", text)
	}
	if strings.Index(text, filepath.Join("2023", "a.pdf")) > strings.Index(text, "b.pdf") {
		t.Errorf("listing not sorted: %s", text)
	}

	result, err = s.handleFind(context.Background(), callRequest(map[string]interface{}{"directory": "2023"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "Found 1 filing(s)") {
		t.Errorf("unexpected subdirectory listing: %s", text)
	}

	result, err = s.handleFind(context.Background(), callRequest(map[string]interface{}{"directory": "../"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected escape to be rejected, got %s", extractTextFromResult(result))
	}
}

func TestHandleFind_Empty(t *testing.T) {
	s, _ := newTestServer(t, &fakeExtractor{})

	result, err := s.handleFind(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if text := extractTextFromResult(result); !strings.Contains(text, "No filings found") {
		t.Errorf("unexpected result: %s", text)
	}
}

func TestHandleServerInfo(t *testing.T) {
	s, dir := newTestServer(t, &fakeExtractor{fields: []filing.FieldKind{filing.FieldCompanyName, filing.FieldEmployees}})
	writeFiling(t, dir, "acme.pdf")

	result, err := s.handleServerInfo(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := extractTextFromResult(result)

	for _, want := range []string{
		"test-server v1.0.0",
		"Fields: company_name, employees",
		"1. acme.pdf",
		"OCR Service: disabled",
		ToolExtractFields,
		ToolValidate,
		ToolFind,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("server info missing %q:\n%s", want, text)
		}
	}
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
