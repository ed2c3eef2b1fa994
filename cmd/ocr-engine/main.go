// Command ocr-engine serves Tesseract OCR over HTTP for the filing
// extractor's scanned-page fallback.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/filing-extractor/internal/ocr"
)

// tesseractEngine runs one gosseract client per request; clients are not
// safe for concurrent use.
type tesseractEngine struct {
	languages []string
}

func (e tesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func main() {
	v := viper.New()
	v.SetEnvPrefix("OCR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("ocr-engine", pflag.ContinueOnError)
	fs.String("addr", ":8090", "Listen address")
	fs.StringSlice("lang", []string{"eng"}, "Tesseract languages")
	fs.Int64("max-bytes", ocr.DefaultMaxImageBytes, "Maximum image upload size in bytes")
	fs.String("loglevel", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		os.Exit(2)
	}
	if err := v.BindPFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("loglevel"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	engine := tesseractEngine{languages: v.GetStringSlice("lang")}
	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           ocr.NewHandler(engine, v.GetInt64("max-bytes"), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ocr.server.shutdown_error", "error", err)
		}
	}()

	logger.Info("ocr.server.start", "addr", srv.Addr, "languages", engine.languages)
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		logger.Error("ocr.server.failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ocr.server.stopped")
}
