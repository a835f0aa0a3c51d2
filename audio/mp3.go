package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always yields interleaved 16-bit little-endian stereo.
const (
	mp3BytesPerFrame = 4
	mp3PacketBytes   = 1152 * mp3BytesPerFrame
)

type mp3Source struct {
	f       *os.File
	dec     *mp3.Decoder
	buf     []byte
	pending []byte
}

func openMP3(path string) (*mp3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3: %w", err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &mp3Source{f: f, dec: dec, buf: make([]byte, mp3PacketBytes)}, nil
}

func (s *mp3Source) SampleRate() int {
	return s.dec.SampleRate()
}

func (s *mp3Source) Next() ([]float32, error) {
	n, err := s.dec.Read(s.buf)
	data := append(s.pending, s.buf[:n]...)
	frames := len(data) / mp3BytesPerFrame
	s.pending = append(s.pending[:0], data[frames*mp3BytesPerFrame:]...)

	if frames > 0 {
		out := make([]float32, frames)
		for i := 0; i < frames; i++ {
			left := int16(binary.LittleEndian.Uint16(data[i*mp3BytesPerFrame:]))
			out[i] = float32(left) / 32768
		}
		// A trailing error surfaces on the next call.
		return out, nil
	}

	if err == nil {
		return nil, io.ErrNoProgress
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, err
}

func (s *mp3Source) Close() error {
	return s.f.Close()
}
