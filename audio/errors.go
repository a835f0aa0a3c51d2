package audio

import "errors"

var (
	// ErrUnsupportedFormat indicates the container could not be identified.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDecode indicates the stream failed before yielding any samples.
	ErrDecode = errors.New("audio decode failed")

	// ErrSilentOrInvalidAudio indicates the decoded signal is empty or all zero.
	ErrSilentOrInvalidAudio = errors.New("silent or invalid audio")
)
