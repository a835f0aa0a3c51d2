package cache

import (
	"bytes"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/refinery/core"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	envelopeVersion = 1

	// maxDecodedSize bounds decompression of a single entry.
	maxDecodedSize = 64 << 20
)

// envelope is the stored form of a cached result.
type envelope struct {
	Version  int     `msgpack:"v"`
	Sum      core.ID `msgpack:"sum"`
	StoredAt int64   `msgpack:"at"`
	Data     []byte  `msgpack:"data"`
}

// Encode compresses value with gzip and wraps it in a checksummed envelope.
func Encode(value string) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(zw, value); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}

	return msgpack.Marshal(&envelope{
		Version:  envelopeVersion,
		Sum:      core.IDFromContent([]byte(value)),
		StoredAt: time.Now().Unix(),
		Data:     buf.Bytes(),
	})
}

// Decode reverses Encode. Any structural, decompression, checksum or UTF-8
// failure is reported as ErrCorrupt.
func Decode(raw []byte) (string, error) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if env.Version != envelopeVersion {
		return "", fmt.Errorf("%w: envelope version %d", ErrCorrupt, env.Version)
	}

	zr, err := gzip.NewReader(bytes.NewReader(env.Data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(io.LimitReader(zr, maxDecodedSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(plain) > maxDecodedSize {
		return "", fmt.Errorf("%w: entry exceeds %d bytes", ErrCorrupt, maxDecodedSize)
	}
	if core.IDFromContent(plain) != env.Sum {
		return "", fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrCorrupt)
	}
	return string(plain), nil
}
