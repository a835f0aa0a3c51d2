package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedType matches every *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoTextFound is returned when a PDF yields no extractable text.
	ErrNoTextFound = errors.New("no text found")

	// ErrCapabilityUnavailable indicates a capability whose collaborator was
	// not configured.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrOCR wraps failures from the text recognition engine.
	ErrOCR = errors.New("ocr failed")

	// ErrPDF wraps failures from the PDF reader.
	ErrPDF = errors.New("pdf extraction failed")
)

// UnsupportedTypeError reports an extension outside the dispatch table.
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Unsupported file type: .%s", strings.TrimPrefix(e.Ext, "."))
}

// Is reports ErrUnsupportedType as a match.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}
