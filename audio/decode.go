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

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Buffer is mono float32 PCM at SampleRate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Container identifies a supported audio container.
type Container string

const (
	ContainerUnknown Container = ""
	ContainerWAV     Container = "wav"
	ContainerMP3     Container = "mp3"
	ContainerM4A     Container = "m4a"
)

// packetSource yields the first channel of successive decoded packets.
// Next returns io.EOF once the primary track is exhausted.
type packetSource interface {
	SampleRate() int
	Next() ([]float32, error)
	Close() error
}

// Transformer decodes audio files into normalized 16 kHz mono buffers.
type Transformer struct {
	ffmpegPath string
	tempDir    string
	logger     *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithFFmpegPath sets the ffmpeg binary used for containers without a native decoder.
func WithFFmpegPath(path string) Option {
	return func(t *Transformer) {
		if path != "" {
			t.ffmpegPath = path
		}
	}
}

// WithTempDir sets where intermediate files are written.
func WithTempDir(dir string) Option {
	return func(t *Transformer) {
		t.tempDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransformer creates a Transformer with the provided options applied.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		ffmpegPath: "ffmpeg",
		logger:     slog.Default().With("component", "audio"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var defaultTransformer = NewTransformer()

// DecodeAndResample decodes path with the default Transformer.
func DecodeAndResample(path, extHint string) (Buffer, error) {
	return defaultTransformer.DecodeAndResample(path, extHint)
}

// DecodeAndResample probes the container, decodes the primary track keeping
// only the first channel, resamples to TargetSampleRate and peak-normalizes.
//
// A decode error after samples have been produced ends decoding; what was
// accumulated is kept and a warning logged. An error before the first sample
// is returned as ErrDecode.
func (t *Transformer) DecodeAndResample(path, extHint string) (Buffer, error) {
	container, err := Probe(path, extHint)
	if err != nil {
		return Buffer{}, err
	}

	src, err := t.open(path, container)
	if err != nil {
		return Buffer{}, err
	}
	defer src.Close()

	rate := src.SampleRate()
	if rate <= 0 {
		return Buffer{}, fmt.Errorf("%w: missing sample rate", ErrDecode)
	}

	var samples []float32
	for {
		packet, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(samples) == 0 {
				return Buffer{}, fmt.Errorf("%w: %w", ErrDecode, err)
			}
			t.logger.Warn("decode error, keeping partial audio",
				"path", path, "samples", len(samples), "err", err)
			break
		}
		samples = append(samples, packet...)
	}

	if rate != TargetSampleRate {
		t.logger.Debug("resampling", "from", rate, "to", TargetSampleRate)
	}
	samples = ResampleLinear(samples, rate, TargetSampleRate)

	if err := Normalize(samples); err != nil {
		return Buffer{}, err
	}

	return Buffer{Samples: samples, SampleRate: TargetSampleRate}, nil
}

func (t *Transformer) open(path string, container Container) (packetSource, error) {
	switch container {
	case ContainerWAV:
		return openWAV(path)
	case ContainerMP3:
		return openMP3(path)
	case ContainerM4A:
		return t.openFFmpeg(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, container)
	}
}

// Probe identifies the container of path. File content wins over the
// extension hint; the hint is used when the magic bytes are inconclusive.
func Probe(path, extHint string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContainerUnknown, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return ContainerUnknown, fmt.Errorf("failed to read audio header: %w", err)
	}

	if c := sniff(head[:n]); c != ContainerUnknown {
		return c, nil
	}
	if c := fromExtension(extHint); c != ContainerUnknown {
		return c, nil
	}
	return ContainerUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, extHint)
}

func sniff(head []byte) Container {
	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return ContainerWAV
	case len(head) >= 3 && bytes.Equal(head[0:3], []byte("ID3")):
		return ContainerMP3
	case len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")):
		return ContainerM4A
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 && head[1]&0x06 != 0:
		// MPEG audio frame sync with a layer set. ADTS (layer bits 00) is left to the hint.
		return ContainerMP3
	default:
		return ContainerUnknown
	}
}

func fromExtension(ext string) Container {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav", "wave":
		return ContainerWAV
	case "mp3":
		return ContainerMP3
	case "m4a", "mp4", "aac":
		return ContainerM4A
	default:
		return ContainerUnknown
	}
}
