// Package pdf is the Text/Layout Provider: it turns PDF bytes into a
// filing.Document of pages and positioned text blocks, falling back to OCR
// for pages that carry no usable native text.
package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a3tai/filing-extractor/internal/errors"
	"github.com/a3tai/filing-extractor/internal/filing"
)

// DefaultOCRMinChars is the non-whitespace character count under which a
// page is treated as scanned.
const DefaultOCRMinChars = 32

// Recognizer turns a page image into text
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, fileType string) (string, error)
}

// Provider extracts Documents from PDF bytes
type Provider struct {
	validator *Validator
	images    ImageSource
	ocr       Recognizer
	minChars  int
	logger    *slog.Logger
	open      func([]byte) (TextLayer, error)
}

// Option configures a Provider
type Option func(*Provider)

// WithOCR enables the OCR fallback for scanned pages
func WithOCR(r Recognizer) Option {
	return func(p *Provider) { p.ocr = r }
}

// WithImageSource replaces the pdfcpu page image extraction
func WithImageSource(s ImageSource) Option {
	return func(p *Provider) { p.images = s }
}

// WithMinChars sets the scanned page threshold
func WithMinChars(n int) Option {
	return func(p *Provider) { p.minChars = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider that rejects inputs above maxFileSize bytes
func NewProvider(maxFileSize int64, opts ...Option) *Provider {
	p := &Provider{
		validator: NewValidator(maxFileSize),
		images:    PDFCPUImages{},
		minChars:  DefaultOCRMinChars,
		logger:    slog.Default(),
		open: func(data []byte) (TextLayer, error) {
			return NewReader(data)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Validator returns the input validator used by the provider
func (p *Provider) Validator() *Validator {
	return p.validator
}

// ExtractFile validates and reads path, then extracts it
func (p *Provider) ExtractFile(ctx context.Context, path string, errs *errors.Collection) (*filing.Document, error) {
	data, err := p.validator.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Extract(ctx, data, path, errs)
}

// Extract builds a Document from PDF bytes. Structural failures are
// UnreadablePDF errors. OCR outages are recorded in errs and the page keeps
// whatever native text it had.
func (p *Provider) Extract(ctx context.Context, data []byte, sourcePath string, errs *errors.Collection) (*filing.Document, error) {
	pageCount, err := p.validator.ValidateStructure(data)
	if err != nil {
		return nil, err
	}

	layer, err := p.open(data)
	if err != nil {
		return nil, errors.Unreadable("open", err)
	}
	if n := layer.NumPage(); n != pageCount {
		p.logger.Debug("pdf.pagecount.mismatch", "validated", pageCount, "layout", n)
	}

	return p.build(ctx, data, sourcePath, layer, errs)
}

func (p *Provider) build(ctx context.Context, data []byte, sourcePath string, layer TextLayer, errs *errors.Collection) (*filing.Document, error) {
	sum := sha256.Sum256(data)
	doc := &filing.Document{
		SourcePath: sourcePath,
		Hash:       hex.EncodeToString(sum[:]),
		Pages:      make([]filing.Page, layer.NumPage()),
	}

	var sparse []int
	for i := range doc.Pages {
		texts, err := layer.Texts(i)
		if err != nil {
			p.logger.Warn("pdf.page.unreadable", "page", i, "err", err)
		}
		blocks := GroupBlocks(i, texts)
		doc.Pages[i] = filing.Page{Index: i, Blocks: blocks, Text: pageText(blocks)}
		if doc.Pages[i].NonSpaceChars() < p.minChars {
			sparse = append(sparse, i)
		}
	}
	if len(sparse) > 0 && p.images != nil {
		p.recognizeAll(ctx, data, doc, sparse, errs)
	}

	p.logger.Debug("pdf.document.ok", "path", sourcePath, "pages", len(doc.Pages), "hash", doc.Hash)
	return doc, nil
}

// recognizeAll pulls the images of every near-empty page in one pass over
// the file and runs OCR page by page.
func (p *Provider) recognizeAll(ctx context.Context, data []byte, doc *filing.Document, sparse []int, errs *errors.Collection) {
	images, err := p.images.PageImages(data, sparse)
	if err != nil {
		for _, i := range sparse {
			p.degrade(i, fmt.Errorf("extract page images: %w", err), errs)
		}
		return
	}
	for _, i := range sparse {
		doc.Pages[i] = p.recognize(ctx, doc.Pages[i], images[i], errs)
	}
}

// recognize replaces a near-empty page's blocks with OCR output. A page
// without images is blank and left alone.
func (p *Provider) recognize(ctx context.Context, page filing.Page, images []Image, errs *errors.Collection) filing.Page {
	if len(images) == 0 {
		return page
	}
	if p.ocr == nil {
		p.degrade(page.Index, fmt.Errorf("no OCR service configured"), errs)
		return page
	}

	parts := make([]string, 0, len(images))
	for _, img := range images {
		text, err := p.ocr.Recognize(ctx, img.Data, img.FileType)
		if err != nil {
			p.degrade(page.Index, err, errs)
			return page
		}
		parts = append(parts, text)
	}

	blocks := blocksFromText(page.Index, strings.Join(parts, "\n"))
	p.logger.Debug("pdf.page.ocr", "page", page.Index, "images", len(images), "blocks", len(blocks))
	return filing.Page{Index: page.Index, Blocks: blocks, Text: pageText(blocks), OCR: true}
}

func (p *Provider) degrade(page int, err error, errs *errors.Collection) {
	p.logger.Warn("pdf.page.ocr.degraded", "page", page, "err", err)
	if errs != nil {
		errs.Add(errors.OCRUnavailable(page, err))
	}
}
