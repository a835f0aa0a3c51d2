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

import "context"

// OCR recognizes text in an image file.
type OCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// OCRConfig selects the recognition language and, for the command line
// backend, the executable.
type OCRConfig struct {
	// Binary is the tesseract executable. Empty means "tesseract" on PATH.
	Binary string `yaml:"binary"`

	// Language is a tesseract language code such as "eng" or "eng+vie".
	Language string `yaml:"language"`
}

// DefaultOCRConfig returns English recognition.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{Binary: "tesseract", Language: "eng"}
}

func (c *OCRConfig) normalize() {
	if c.Binary == "" {
		c.Binary = "tesseract"
	}
	if c.Language == "" {
		c.Language = "eng"
	}
}
