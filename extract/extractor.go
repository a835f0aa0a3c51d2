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

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/refinery/ai"
	"github.com/poiesic/refinery/audio"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/offload"
	"github.com/poiesic/refinery/tempfile"
)

// Transcriber turns a decoded buffer into text. *engine.Registry satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
}

// Decoder turns an audio file into a 16 kHz mono buffer. *audio.Transformer
// satisfies it.
type Decoder interface {
	DecodeAndResample(path, extHint string) (audio.Buffer, error)
}

// Extractor runs one capability against a local file. CPU-bound steps go
// through the offload pool; the vision call runs on the caller's goroutine.
type Extractor struct {
	pool        *offload.Pool
	decoder     Decoder
	transcriber Transcriber
	ocr         OCR
	describer   ai.Describer
	pdf         PDFReader
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDecoder replaces the audio decoder.
func WithDecoder(d Decoder) Option {
	return func(e *Extractor) {
		if d != nil {
			e.decoder = d
		}
	}
}

// WithTranscriber enables audio items.
func WithTranscriber(t Transcriber) Option {
	return func(e *Extractor) {
		e.transcriber = t
	}
}

// WithOCR replaces the OCR engine.
func WithOCR(o OCR) Option {
	return func(e *Extractor) {
		if o != nil {
			e.ocr = o
		}
	}
}

// WithDescriber enables vision descriptions for images. Without one the
// description is left empty.
func WithDescriber(d ai.Describer) Option {
	return func(e *Extractor) {
		e.describer = d
	}
}

// WithPDFReader replaces the PDF reader.
func WithPDFReader(r PDFReader) Option {
	return func(e *Extractor) {
		if r != nil {
			e.pdf = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor that offloads work to pool.
func New(pool *offload.Pool, opts ...Option) (*Extractor, error) {
	if pool == nil {
		return nil, fmt.Errorf("extract: offload pool is required")
	}
	e := &Extractor{
		pool:    pool,
		decoder: audio.NewTransformer(),
		ocr:     NewOCR(DefaultOCRConfig()),
		pdf:     PlainTextPDF{},
		logger:  slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs capability c against the file at path and returns the JSON
// result object.
func (e *Extractor) Extract(ctx context.Context, c core.Capability, path string) (json.RawMessage, error) {
	switch c {
	case core.CapabilityAudio:
		return e.extractAudio(ctx, path)
	case core.CapabilityImage:
		return e.extractImage(ctx, path)
	case core.CapabilityPdf:
		return e.extractText(ctx, path, e.pdf.ReadText)
	case core.CapabilityText:
		return e.extractText(ctx, path, ReadText)
	default:
		return nil, &UnsupportedTypeError{Ext: tempfile.Ext(path)}
	}
}

func (e *Extractor) extractAudio(ctx context.Context, path string) (json.RawMessage, error) {
	if e.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcription engine", ErrCapabilityUnavailable)
	}

	// Started work runs to completion even if the request goes away.
	work := context.WithoutCancel(ctx)
	text, err := offload.Run(ctx, e.pool, func() (string, error) {
		buf, err := e.decoder.DecodeAndResample(path, tempfile.Ext(path))
		if err != nil {
			return "", err
		}
		e.logger.Debug("audio decoded", "path", path, "samples", len(buf.Samples), "seconds", buf.Duration())
		return e.transcriber.Transcribe(work, buf)
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(core.TextResult{Text: text})
}

func (e *Extractor) extractImage(ctx context.Context, path string) (json.RawMessage, error) {
	work := context.WithoutCancel(ctx)
	ocrText, err := offload.Run(ctx, e.pool, func() (string, error) {
		return e.ocr.Recognize(work, path)
	})
	if err != nil {
		return nil, err
	}

	var description string
	if e.describer != nil {
		description, err = e.describer.Describe(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("vision description: %w", err)
		}
	}

	return json.Marshal(core.ImageResult{
		OCRText:           strings.TrimSpace(ocrText),
		VisionDescription: description,
	})
}

func (e *Extractor) extractText(ctx context.Context, path string, read func(string) (string, error)) (json.RawMessage, error) {
	text, err := offload.Run(ctx, e.pool, func() (string, error) {
		return read(path)
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(core.TextResult{Text: text})
}
