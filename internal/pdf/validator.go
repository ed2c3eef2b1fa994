package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/filing-extractor/internal/errors"
)

// Validator handles input checks before a PDF is parsed
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ReadFile validates the path and returns the file contents
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	if err := v.ValidateFile(filePath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.InvalidInput("read file", err)
	}
	return data, nil
}

// ValidateFile checks that filePath names a readable, non-empty PDF within
// the size limit. It does not parse the file.
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return errors.InvalidInput("validate", fmt.Errorf("path cannot be empty"))
	}

	// Check if file exists and get basic info
	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.InvalidInput("validate", fmt.Errorf("file does not exist: %s", filePath))
	}
	if err != nil {
		return errors.InvalidInput("validate", fmt.Errorf("cannot access file: %w", err))
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return errors.InvalidInput("validate", fmt.Errorf("path is a directory, not a file: %s", filePath))
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return errors.InvalidInput("validate", fmt.Errorf("file is not a PDF: %s", filePath))
	}

	if fileInfo.Size() == 0 {
		return errors.InvalidInput("validate", fmt.Errorf("file is empty: %s", filePath))
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return errors.InvalidInput("validate", fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize))
	}

	return nil
}

// ValidateStructure parses data with pdfcpu in relaxed mode and returns the
// page count. Any failure is an UnreadablePDF error.
func (v *Validator) ValidateStructure(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.Unreadable("validate structure", fmt.Errorf("empty input"))
	}
	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return 0, errors.InvalidInput("validate structure",
			fmt.Errorf("input too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize))
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := readContext(data, conf)
	if err != nil {
		return 0, errors.Unreadable("validate structure", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, errors.Unreadable("count pages", err)
	}
	return ctx.PageCount, nil
}

// readContext reads and validates data with pdfcpu, converting its panics
// on malformed cross-reference data into errors.
func readContext(data []byte, conf *model.Configuration) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("panic while reading PDF: %v", r)
		}
	}()
	ctx, err = api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}
