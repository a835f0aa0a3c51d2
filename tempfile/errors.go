package tempfile

import "errors"

// ErrTooLarge is returned when a stream exceeds the configured size cap.
var ErrTooLarge = errors.New("content exceeds size limit")
