package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/filing-extractor/internal/filing"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel         = "info"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultAnnotatorTimeout = 30 * time.Second
	DefaultOCRTimeout       = 60 * time.Second
	DefaultOCRMinChars      = 32
	DefaultHeadingRatio     = 1.2
	DefaultThreshold        = 0.4
	DefaultTieEpsilon       = 0.05
	DefaultWorkers          = 4

	// EnvPrefix is prepended to every environment override, e.g. FILING_OCR_URL
	EnvPrefix = "FILING"
)

// Config holds all configuration for the filing extractor
type Config struct {
	Mode string // "cli" or "stdio"

	// Input configuration
	PDFDirectory string // root for MCP tool paths and directory batches
	MaxFileSize  int64

	// Boundaries
	AnnotatorURL     string
	AnnotatorTimeout time.Duration
	OCRURL           string
	OCRTimeout       time.Duration
	OCRMinChars      int // pages with fewer non-space characters are treated as scanned

	// Extraction tuning
	HeadingRatio      float64
	Threshold         float64
	FieldThresholds   map[filing.FieldKind]float64
	TieEpsilon        float64
	Fields            []filing.FieldKind
	EmitLowConfidence bool

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	Workers    int
	ExportPath string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeCLI,
		PDFDirectory:     currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		AnnotatorTimeout: DefaultAnnotatorTimeout,
		OCRTimeout:       DefaultOCRTimeout,
		OCRMinChars:      DefaultOCRMinChars,
		HeadingRatio:     DefaultHeadingRatio,
		Threshold:        DefaultThreshold,
		FieldThresholds:  map[filing.FieldKind]float64{},
		TieEpsilon:       DefaultTieEpsilon,
		Fields:           filing.AllFields(),
		Version:          "1.0.0",
		ServerName:       "filing-extractor",
		LogLevel:         DefaultLogLevel,
		Workers:          DefaultWorkers,
	}
}

// Load parses command line arguments and the environment into a configuration.
// It returns the remaining positional arguments (input paths).
func Load(args []string) (*Config, []string, error) {
	cfg := DefaultConfig()
	v := viper.New()
	fs := pflag.NewFlagSet("filing-extractor", pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, fmt.Errorf("bind flags: %w", err)
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, fs.Args(), nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("annotator-url", cfg.AnnotatorURL)
	v.SetDefault("annotator-timeout", cfg.AnnotatorTimeout)
	v.SetDefault("ocr-url", cfg.OCRURL)
	v.SetDefault("ocr-timeout", cfg.OCRTimeout)
	v.SetDefault("ocr-min-chars", cfg.OCRMinChars)
	v.SetDefault("heading-ratio", cfg.HeadingRatio)
	v.SetDefault("threshold", cfg.Threshold)
	v.SetDefault("tie-epsilon", cfg.TieEpsilon)
	v.SetDefault("emit-low-confidence", cfg.EmitLowConfidence)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("export", cfg.ExportPath)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'cli' extracts the given files, 'stdio' serves MCP over standard I/O")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files (MCP root and directory batches)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("annotator-url", cfg.AnnotatorURL, "Entity annotator endpoint; empty uses the built-in rule annotator")
	fs.Duration("annotator-timeout", cfg.AnnotatorTimeout, "Timeout for one annotator call")
	fs.String("ocr-url", cfg.OCRURL, "OCR service endpoint; empty disables OCR of scanned pages")
	fs.Duration("ocr-timeout", cfg.OCRTimeout, "Timeout for one OCR call")
	fs.Int("ocr-min-chars", cfg.OCRMinChars, "Pages with fewer non-space characters are sent to OCR")
	fs.Float64("heading-ratio", cfg.HeadingRatio, "Font size ratio over the page median for heading candidates")
	fs.Float64("threshold", cfg.Threshold, "Default acceptance threshold for field candidates")
	fs.StringToString("field-threshold", nil, "Per-field thresholds, e.g. revenue=0.5,auditor=0.6")
	fs.Float64("tie-epsilon", cfg.TieEpsilon, "Score gap under which two differing candidates are an ambiguous tie")
	fs.StringSlice("fields", nil, "Fields to extract (default: all), e.g. company_name,revenue")
	fs.Bool("emit-low-confidence", cfg.EmitLowConfidence, "Attach the best rejected candidate to below-threshold fields")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int("workers", cfg.Workers, "Documents processed in parallel in batch mode")
	fs.String("export", cfg.ExportPath, "Write batch results to this XLSX file")
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFiling Extractor - structured fields from 10-K forms and annual reports\n\n")
		fmt.Fprintf(os.Stderr, "  %s [options] <file.pdf> [more.pdf | directory ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s report.pdf                               # print JSON result\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --export=out.xlsx filings/               # batch a directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/pdfs         # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FILING_MODE, FILING_DIR, FILING_ANNOTATOR_URL, FILING_OCR_URL,\n")
		fmt.Fprintf(os.Stderr, "  FILING_THRESHOLD, FILING_TIE_EPSILON, FILING_LOGLEVEL, FILING_WORKERS\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.Mode = v.GetString("mode")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.AnnotatorURL = v.GetString("annotator-url")
	cfg.AnnotatorTimeout = v.GetDuration("annotator-timeout")
	cfg.OCRURL = v.GetString("ocr-url")
	cfg.OCRTimeout = v.GetDuration("ocr-timeout")
	cfg.OCRMinChars = v.GetInt("ocr-min-chars")
	cfg.HeadingRatio = v.GetFloat64("heading-ratio")
	cfg.Threshold = v.GetFloat64("threshold")
	cfg.TieEpsilon = v.GetFloat64("tie-epsilon")
	cfg.EmitLowConfidence = v.GetBool("emit-low-confidence")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.Workers = v.GetInt("workers")
	cfg.ExportPath = v.GetString("export")

	if names := v.GetStringSlice("fields"); len(names) > 0 {
		fields, err := ParseFields(names)
		if err != nil {
			return err
		}
		cfg.Fields = fields
	}

	for name, raw := range v.GetStringMapString("field-threshold") {
		f, err := filing.ParseFieldKind(name)
		if err != nil {
			return err
		}
		var t float64
		if _, err := fmt.Sscanf(raw, "%g", &t); err != nil {
			return fmt.Errorf("threshold for %s: %w", name, err)
		}
		cfg.FieldThresholds[f] = t
	}
	return nil
}

// ParseFields resolves field names and returns them in canonical order
func ParseFields(names []string) ([]filing.FieldKind, error) {
	want := make(map[filing.FieldKind]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		f, err := filing.ParseFieldKind(n)
		if err != nil {
			return nil, err
		}
		want[f] = true
	}
	var out []filing.FieldKind
	for _, f := range filing.AllFields() {
		if want[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

// ThresholdFor returns the acceptance threshold for a field
func (c *Config) ThresholdFor(f filing.FieldKind) float64 {
	if t, ok := c.FieldThresholds[f]; ok {
		return t
	}
	return c.Threshold
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.AnnotatorTimeout <= 0 || c.OCRTimeout <= 0 {
		return errors.New("boundary timeouts must be positive")
	}

	if c.OCRMinChars < 0 {
		return errors.New("ocr-min-chars cannot be negative")
	}

	if c.HeadingRatio < 1 {
		return fmt.Errorf("heading ratio must be at least 1, got %g", c.HeadingRatio)
	}

	if err := checkUnit("threshold", c.Threshold); err != nil {
		return err
	}
	for f, t := range c.FieldThresholds {
		if err := checkUnit("threshold for "+f.String(), t); err != nil {
			return err
		}
	}
	if err := checkUnit("tie epsilon", c.TieEpsilon); err != nil {
		return err
	}

	if len(c.Fields) == 0 {
		return errors.New("at least one field must be enabled")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0,1], got %g", name, v)
	}
	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if the MCP server should run over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, PDFDirectory: %s, AnnotatorURL: %q, OCRURL: %q, Threshold: %g, TieEpsilon: %g, Fields: %d, LogLevel: %s}",
		c.Mode, c.PDFDirectory, c.AnnotatorURL, c.OCRURL, c.Threshold, c.TieEpsilon, len(c.Fields), c.LogLevel)
}
