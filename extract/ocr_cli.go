//go:build !tesseract

package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// OCRBackend names the compiled-in OCR implementation.
const OCRBackend = "tesseract-cli"

type cliOCR struct {
	cfg    OCRConfig
	logger *slog.Logger
}

var _ OCR = (*cliOCR)(nil)

// NewOCR returns an OCR backed by the tesseract command line tool. The
// binary is resolved lazily so a missing install only fails image items.
func NewOCR(cfg OCRConfig) OCR {
	cfg.normalize()
	return &cliOCR{
		cfg:    cfg,
		logger: slog.Default().With("component", "ocr"),
	}
}

func (o *cliOCR) Recognize(ctx context.Context, path string) (string, error) {
	binary, err := exec.LookPath(o.cfg.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %s not found", ErrOCR, ErrCapabilityUnavailable, o.cfg.Binary)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, path, "stdout", "-l", o.cfg.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		o.logger.Warn("tesseract failed", "path", path, "stderr", strings.TrimSpace(stderr.String()), "err", err)
		return "", fmt.Errorf("%w: %w", ErrOCR, err)
	}
	return stdout.String(), nil
}
