package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/filing-extractor/internal/filing"
)

func TestErrorType_Classification(t *testing.T) {
	tests := []struct {
		typ         ErrorType
		name        string
		severity    ErrorSeverity
		recoverable bool
	}{
		{ErrorTypeUnreadablePDF, "UNREADABLE_PDF", SeverityFatal, false},
		{ErrorTypeInvalidInput, "INVALID_INPUT", SeverityFatal, false},
		{ErrorTypeAnnotatorUnavailable, "ANNOTATOR_UNAVAILABLE", SeverityWarning, true},
		{ErrorTypeOCRUnavailable, "OCR_UNAVAILABLE", SeverityWarning, true},
		{ErrorTypeTimeout, "TIMEOUT", SeverityWarning, true},
		{ErrorTypeUnknown, "UNKNOWN", SeverityError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.typ.String())
			assert.Equal(t, tt.severity, tt.typ.GetSeverity())
			assert.Equal(t, tt.recoverable, tt.typ.IsRecoverable())
		})
	}
}

func TestError_Message(t *testing.T) {
	cause := stderrors.New("boom")

	assert.Equal(t, "[UNREADABLE_PDF] parse: boom", Unreadable("parse", cause).Error())
	assert.Equal(t, "[OCR_UNAVAILABLE] ocr (page 3): boom", OCRUnavailable(3, cause).Error())
	assert.Equal(t, "[ANNOTATOR_UNAVAILABLE] annotate (section 2): boom", AnnotatorUnavailable(2, cause).Error())
	assert.Equal(t, "[INVALID_INPUT] validate", InvalidInput("validate", nil).Error())
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("section 4: %w", AnnotatorUnavailable(4, cause))

	assert.ErrorIs(t, err, ErrAnnotatorUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrOCRUnavailable)
	assert.NotErrorIs(t, err, ErrUnreadablePDF)

	assert.ErrorIs(t, Unreadable("open", nil), ErrUnreadablePDF)
	assert.ErrorIs(t, InvalidInput("read", nil), ErrInvalidInput)
	assert.NotErrorIs(t, Unreadable("a", nil), Unreadable("b", nil), "only sentinels match by type")
}

func TestTypeOfAndIsFatal(t *testing.T) {
	assert.Equal(t, ErrorTypeOCRUnavailable, TypeOf(fmt.Errorf("wrap: %w", OCRUnavailable(0, nil))))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))

	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(Unreadable("parse", nil)))
	assert.True(t, IsFatal(stderrors.New("plain errors are fatal")))
	assert.False(t, IsFatal(OCRUnavailable(1, nil)))
	assert.True(t, OCRUnavailable(1, nil).Recoverable())
}

func TestCollection_OrderAndDegradations(t *testing.T) {
	c := NewCollection()
	c.Add(nil)
	c.Add(AnnotatorUnavailable(2, stderrors.New("timeout")))
	c.Add(OCRUnavailable(5, stderrors.New("refused")))
	c.Add(AnnotatorUnavailable(0, nil))
	c.Add(New(ErrorTypeTimeout, "other", nil))

	require.Equal(t, 4, c.Len())

	errs := c.Errors()
	assert.Equal(t, []int{-1, -1, -1, 5}, []int{errs[0].Page, errs[1].Page, errs[2].Page, errs[3].Page})
	assert.Equal(t, -1, errs[0].Section)
	assert.Equal(t, 0, errs[1].Section)
	assert.Equal(t, 2, errs[2].Section)

	kinds := []filing.SectionKind{filing.SectionCover, filing.SectionBusiness, filing.SectionFinancials}
	degs := c.Degradations(kinds)
	require.Len(t, degs, 3, "non-boundary errors are not degradations")

	assert.Equal(t, filing.DegradationAnnotator, degs[0].Kind)
	require.NotNil(t, degs[0].SectionKind)
	assert.Equal(t, filing.SectionCover, *degs[0].SectionKind)
	assert.Empty(t, degs[0].Detail)

	assert.Equal(t, filing.SectionFinancials, *degs[1].SectionKind)
	assert.Equal(t, "timeout", degs[1].Detail)

	assert.Equal(t, filing.DegradationOCR, degs[2].Kind)
	assert.Equal(t, 5, degs[2].Page)
	assert.Nil(t, degs[2].SectionKind)
}

func TestCollection_Concurrent(t *testing.T) {
	c := NewCollection()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(OCRUnavailable(i, nil))
		}()
	}
	wg.Wait()

	errs := c.Errors()
	require.Len(t, errs, 50)
	for i, e := range errs {
		assert.Equal(t, i, e.Page)
	}
}
