// Package export writes batch results as an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/filing-extractor/internal/filing"
	"github.com/a3tai/filing-extractor/internal/pipeline"
)

// Sheet names
const (
	ValuesSheet     = "Extractions"
	ConfidenceSheet = "Confidence"
)

// Status column values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// fixedColumns precede the per-field columns on both sheets.
var fixedColumns = []string{"Path", "Document ID", "Status"}

// Service renders batch results as workbooks
type Service struct {
	logger *slog.Logger
}

// NewService creates an export service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// XLSX returns a workbook with one row per document and one column per
// field. The values sheet holds resolved values; the confidence sheet holds
// confidences, or the NotFound reason for unresolved fields.
func (s *Service) XLSX(results []pipeline.BatchResult, fields []filing.FieldKind) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	// The default sheet is renamed rather than left empty.
	if err := f.SetSheetName(f.GetSheetName(0), ValuesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ConfidenceSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(ValuesSheet)
	f.SetActiveSheet(activeIndex)

	headers := append([]string{}, fixedColumns...)
	for _, fk := range fields {
		headers = append(headers, fk.String())
	}
	for _, sheet := range []string{ValuesSheet, ConfidenceSheet} {
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return nil, fmt.Errorf("write header: %w", err)
			}
		}
	}

	for i, r := range results {
		row := i + 2
		write := func(sheet string, col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		status, id := statusOf(r)
		for _, sheet := range []string{ValuesSheet, ConfidenceSheet} {
			write(sheet, 1, r.Path)
			write(sheet, 2, id)
			write(sheet, 3, status)
		}
		if r.Extraction == nil {
			continue
		}

		for j, fk := range fields {
			col := len(fixedColumns) + j + 1
			rec, ok := r.Extraction.Field(fk)
			if !ok {
				continue
			}
			if rec.NotFound != filing.ReasonNone {
				write(ConfidenceSheet, col, string(rec.NotFound))
				continue
			}
			write(ValuesSheet, col, cellValue(rec))
			write(ConfidenceSheet, col, rec.Confidence)
		}
	}

	_ = f.SetColWidth(ValuesSheet, "A", "A", 48)
	_ = f.SetColWidth(ValuesSheet, "B", "B", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteXLSX renders results to path
func (s *Service) WriteXLSX(path string, results []pipeline.BatchResult, fields []filing.FieldKind) error {
	data, err := s.XLSX(results, fields)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func statusOf(r pipeline.BatchResult) (status, id string) {
	switch {
	case r.Err != nil:
		return StatusFailed + ": " + r.Err.Error(), ""
	case r.Extraction == nil:
		return StatusFailed, ""
	case r.Extraction.Degraded:
		return StatusDegraded, r.Extraction.DocumentID
	default:
		return StatusOK, r.Extraction.DocumentID
	}
}

// cellValue prefers numeric normalized values so spreadsheets can sum them.
func cellValue(rec filing.FieldRecord) any {
	if v, ok := rec.Normalized.(float64); ok {
		return v
	}
	switch v := rec.Value.(type) {
	case []string:
		return strings.Join(v, "; ")
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
