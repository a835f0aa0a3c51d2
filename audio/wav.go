package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFramesPerPacket = 4096
	wavFormatPCM       = 1
	wavFormatFloat     = 3
)

type wavSource struct {
	f        *os.File
	dec      *wav.Decoder
	buf      *goaudio.IntBuffer
	channels int
	bitDepth int
	float    bool
}

func openWAV(path string) (*wavSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	src, err := newWAVSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.f = f
	return src, nil
}

func newWAVSource(r io.ReadSeeker) (*wavSource, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if dec.NumChans < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrDecode)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatFloat {
		return nil, fmt.Errorf("%w: wav format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	channels := int(dec.NumChans)
	return &wavSource{
		dec: dec,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, wavFramesPerPacket*channels),
		},
		channels: channels,
		bitDepth: int(dec.BitDepth),
		float:    dec.WavAudioFormat == wavFormatFloat && dec.BitDepth == 32,
	}, nil
}

func (s *wavSource) SampleRate() int {
	return int(s.dec.SampleRate)
}

func (s *wavSource) Next() ([]float32, error) {
	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}

	frames := n / s.channels
	if frames == 0 {
		return nil, io.EOF
	}
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		out[i] = s.toFloat(s.buf.Data[i*s.channels])
	}
	return out, nil
}

func (s *wavSource) toFloat(v int) float32 {
	if s.float {
		return math.Float32frombits(uint32(int32(v)))
	}
	switch s.bitDepth {
	case 8:
		// unsigned
		return float32(v-128) / 128
	case 16:
		return float32(v) / 32768
	case 24:
		return float32(v) / 8388608
	default:
		return float32(float64(v) / 2147483648)
	}
}

func (s *wavSource) Close() error {
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// WriteWAV encodes buf as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, buf Buffer) error {
	enc := wav.NewEncoder(w, buf.SampleRate, 16, 1, wavFormatPCM)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		s = max(-1, min(1, s))
		data[i] = int(s * 32767)
	}

	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return enc.Close()
}
