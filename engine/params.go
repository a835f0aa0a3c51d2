package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ModelPathEnv overrides the default model location.
	ModelPathEnv = "WHISPER_MODEL_PATH"

	defaultLanguage = "en"
)

// DefaultModelPath is used when neither configuration nor ModelPathEnv name a model.
var DefaultModelPath = filepath.Join(".", "models", "whisper-cpp", "ggml-base.en.bin")

// Params controls decoding. Sampling is always greedy at temperature zero
// without translation or timestamps.
type Params struct {
	ModelPath string
	Threads   int
	Language  string
}

// DefaultParams returns parameters using every CPU and English.
func DefaultParams() Params {
	return Params{
		ModelPath: ResolveModelPath(""),
		Threads:   runtime.NumCPU(),
		Language:  defaultLanguage,
	}
}

// Normalize fills unset fields with defaults.
func (p *Params) Normalize() {
	p.ModelPath = ResolveModelPath(p.ModelPath)
	if p.Threads <= 0 {
		p.Threads = runtime.NumCPU()
	}
	if p.Language == "" {
		p.Language = defaultLanguage
	}
}

// ResolveModelPath returns configured when set, else the ModelPathEnv
// variable, else DefaultModelPath.
func ResolveModelPath(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv(ModelPathEnv); env != "" {
		return env
	}
	return DefaultModelPath
}

// CheckModel verifies the model file exists and is a regular file.
func CheckModel(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	return nil
}

// JoinSegments trims each segment, drops empty ones and joins the rest with
// single spaces.
func JoinSegments(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
