package extract

import (
	"os"
	"strings"
	"unicode/utf8"
)

// ReadText returns the file content with invalid UTF-8 sequences replaced
// by U+FFFD.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}
