package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/filing-extractor/internal/config"
	"github.com/a3tai/filing-extractor/internal/pdf/pdftest"
	"github.com/a3tai/filing-extractor/internal/pipeline"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2023-12-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)

	for _, expected := range []string{
		"Filing Extractor",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, buf.String(), expected)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		debugOn   bool
		warnOn    bool
		infoShown bool
	}{
		{level: "debug", debugOn: true, warnOn: true, infoShown: true},
		{level: "info", debugOn: false, warnOn: true, infoShown: true},
		{level: "WARN", debugOn: false, warnOn: true, infoShown: false},
		{level: "error", debugOn: false, warnOn: false, infoShown: false},
		{level: "bogus", debugOn: false, warnOn: true, infoShown: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level, io.Discard)
			ctx := context.Background()
			assert.Equal(t, tt.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.infoShown, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.warnOn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func writeReport(t *testing.T, path string) {
	t.Helper()
	data := pdftest.Build(
		[]pdftest.Line{
			{Size: 20, Y: 720, Text: "ACME CORPORATION"},
			{Size: 10, Y: 690, Text: "Annual report for the fiscal year ended December 31, 2023"},
			{Size: 10, Y: 675, Text: "100 Main Street, Springfield, IL 62701"},
		},
		[]pdftest.Line{
			{Size: 20, Y: 720, Text: "Item 1. Business"},
			{Size: 10, Y: 690, Text: "Acme designs and manufactures industrial widgets for utilities."},
			{Size: 10, Y: 675, Text: "As of December 31, 2023 we had 1,200 employees."},
		},
	)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func testSetup(t *testing.T) (*config.Config, *pipeline.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg, pipeline.FromConfig(cfg, logger), dir
}

func TestRunCLI_SingleFile(t *testing.T) {
	cfg, p, dir := testSetup(t)
	path := filepath.Join(dir, "acme.pdf")
	writeReport(t, path)

	var out bytes.Buffer
	code := runCLI(context.Background(), cfg, p, []string{path}, &out, slog.Default())
	require.Equal(t, exitOK, code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, float64(2), result["page_count"])
	assert.NotEmpty(t, result["document_id"])
	assert.Contains(t, result, "fields")
}

func TestRunCLI_Unreadable(t *testing.T) {
	cfg, p, dir := testSetup(t)
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf document"), 0o644))

	var out bytes.Buffer
	code := runCLI(context.Background(), cfg, p, []string{path}, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, exitFailed, code)
	assert.Empty(t, out.String())
}

func TestRunCLI_Usage(t *testing.T) {
	cfg, p, dir := testSetup(t)

	var out bytes.Buffer
	assert.Equal(t, exitUsage, runCLI(context.Background(), cfg, p, nil, &out, slog.Default()))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	assert.Equal(t, exitUsage, runCLI(context.Background(), cfg, p, []string{empty}, &out, slog.Default()))
}

func TestRunCLI_DirectoryBatch(t *testing.T) {
	cfg, p, dir := testSetup(t)
	writeReport(t, filepath.Join(dir, "a.pdf"))
	writeReport(t, filepath.Join(dir, "c.pdf"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("garbage bytes, not a pdf"), 0o644))
	cfg.ExportPath = filepath.Join(t.TempDir(), "out.xlsx")

	var out bytes.Buffer
	code := runCLI(context.Background(), cfg, p, []string{dir}, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, exitPartial, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, filepath.Join(dir, "a.pdf"), first["source_path"])

	info, err := os.Stat(cfg.ExportPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
