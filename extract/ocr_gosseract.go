// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build tesseract

package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

// OCRBackend names the compiled-in OCR implementation.
const OCRBackend = "gosseract"

type gosseractOCR struct {
	cfg    OCRConfig
	logger *slog.Logger
}

var _ OCR = (*gosseractOCR)(nil)

// NewOCR returns an OCR backed by libtesseract through cgo.
func NewOCR(cfg OCRConfig) OCR {
	cfg.normalize()
	return &gosseractOCR{
		cfg:    cfg,
		logger: slog.Default().With("component", "ocr"),
	}
}

// Recognize creates a client per call; gosseract clients are not safe for
// concurrent use.
func (o *gosseractOCR) Recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.cfg.Language); err != nil {
		return "", fmt.Errorf("%w: %w", ErrOCR, err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrOCR, err)
	}
	text, err := client.Text()
	if err != nil {
		o.logger.Warn("gosseract failed", "path", path, "err", err)
		return "", fmt.Errorf("%w: %w", ErrOCR, err)
	}
	return text, nil
}
