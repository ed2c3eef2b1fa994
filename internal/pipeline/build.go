package pipeline

import (
	"log/slog"

	"github.com/a3tai/filing-extractor/internal/aggregate"
	"github.com/a3tai/filing-extractor/internal/config"
	"github.com/a3tai/filing-extractor/internal/entities"
	"github.com/a3tai/filing-extractor/internal/nlp"
	"github.com/a3tai/filing-extractor/internal/ocr"
	"github.com/a3tai/filing-extractor/internal/pdf"
	"github.com/a3tai/filing-extractor/internal/segment"
)

// FromConfig wires the production stages described by cfg. Without an
// annotator URL the built-in rule annotator is used; without an OCR URL
// scanned pages are reported as OCR degradations.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	providerOpts := []pdf.Option{
		pdf.WithMinChars(cfg.OCRMinChars),
		pdf.WithLogger(logger),
	}
	if cfg.OCRURL != "" {
		providerOpts = append(providerOpts, pdf.WithOCR(ocr.NewClient(cfg.OCRURL, cfg.OCRTimeout, logger)))
	}
	provider := pdf.NewProvider(cfg.MaxFileSize, providerOpts...)

	var backend nlp.Annotator = nlp.NewRuleAnnotator()
	if cfg.AnnotatorURL != "" {
		backend = nlp.NewHTTPClient(cfg.AnnotatorURL, cfg.AnnotatorTimeout, logger)
	}
	annotator := entities.New(backend,
		entities.WithTimeout(cfg.AnnotatorTimeout),
		entities.WithLogger(logger),
	)

	seg := segment.DefaultConfig()
	seg.HeadingRatio = cfg.HeadingRatio

	agg := aggregate.Config{
		Threshold:         cfg.Threshold,
		FieldThresholds:   cfg.FieldThresholds,
		TieEpsilon:        cfg.TieEpsilon,
		EmitLowConfidence: cfg.EmitLowConfidence,
	}

	logger.Debug("pipeline.configured",
		"annotator", annotatorName(cfg),
		"ocr", cfg.OCRURL != "",
		"fields", len(cfg.Fields),
		"workers", cfg.Workers,
	)

	return New(provider, annotator, Options{
		Fields:    cfg.Fields,
		Segment:   seg,
		Aggregate: agg,
		Workers:   cfg.Workers,
		Logger:    logger,
	})
}

func annotatorName(cfg *config.Config) string {
	if cfg.AnnotatorURL != "" {
		return "http"
	}
	return "rules"
}
