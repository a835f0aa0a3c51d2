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

// Package extract maps file extensions to extraction capabilities and runs
// them.
//
// Dispatch is a pure lookup over the extension table. Extractor executes a
// capability against a local file, sending CPU-bound work (audio decode and
// transcription, OCR, PDF parsing, text reads) through an offload.Pool.
// Results are JSON objects: {"text"} for audio, PDF and text items and
// {"ocr_text","vision_description"} for images.
package extract
