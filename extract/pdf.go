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
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts the embedded text of a PDF file.
type PDFReader interface {
	ReadText(path string) (string, error)
}

// PlainTextPDF reads PDFs with ledongthuc/pdf.
type PlainTextPDF struct {
	// MaxBytes caps the extracted text. Zero means unlimited.
	MaxBytes int64
}

var _ PDFReader = PlainTextPDF{}

// ReadText returns the trimmed plain text of every page. A document without
// text returns ErrNoTextFound.
func (p PlainTextPDF) ReadText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDF, err)
	}
	defer f.Close()

	body, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDF, err)
	}
	if p.MaxBytes > 0 {
		body = io.LimitReader(body, p.MaxBytes)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, body); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDF, err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoTextFound
	}
	return text, nil
}
