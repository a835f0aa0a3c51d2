package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used to correlate log lines and
// cache entries for the same payload.
type ID uint64

// IDFromContent generates a deterministic ID from raw bytes using BLAKE2b hashing.
// Identical content produces identical IDs.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Capability identifies the extraction strategy selected for an item.
type Capability int

const (
	// CapabilityAudio transcribes speech to text.
	CapabilityAudio Capability = iota + 1
	// CapabilityImage runs OCR followed by a vision description.
	CapabilityImage
	// CapabilityPdf extracts embedded PDF text.
	CapabilityPdf
	// CapabilityText reads the file as plain text.
	CapabilityText
)

func (c Capability) String() string {
	switch c {
	case CapabilityAudio:
		return "audio"
	case CapabilityImage:
		return "image"
	case CapabilityPdf:
		return "pdf"
	case CapabilityText:
		return "text"
	default:
		return "unknown"
	}
}

// BatchItemRequest is a single entry of a batch: where to fetch the bytes
// and the name that selects the extraction capability and the cache key.
type BatchItemRequest struct {
	FileURL  string `json:"file_url"`
	Filename string `json:"filename"`
}

// BatchRequest is the body accepted by the batch endpoint.
type BatchRequest struct {
	Requests []BatchItemRequest `json:"requests"`
}

// BatchItemResult is the outcome of one item.
// Exactly one of Result and Error is set; use Succeeded and Failed to build one.
type BatchItemResult struct {
	Filename string          `json:"filename"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Succeeded builds a successful item result.
func Succeeded(filename string, result json.RawMessage) BatchItemResult {
	return BatchItemResult{Filename: filename, Result: result}
}

// Failed builds a failed item result.
func Failed(filename, message string) BatchItemResult {
	return BatchItemResult{Filename: filename, Error: message}
}

// OK reports whether the item carries a result.
func (r BatchItemResult) OK() bool {
	return r.Error == "" && len(r.Result) > 0
}

// TextResult is the result payload for audio, PDF and text items.
type TextResult struct {
	Text string `json:"text"`
}

// ImageResult is the result payload for image items.
type ImageResult struct {
	OCRText           string `json:"ocr_text"`
	VisionDescription string `json:"vision_description"`
}

// BatchResponse is the envelope returned by the HTTP surface.
type BatchResponse struct {
	Success bool              `json:"success"`
	Data    []BatchItemResult `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
