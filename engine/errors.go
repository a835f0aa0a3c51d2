package engine

import "errors"

var (
	// ErrModelLoad indicates the model could not be loaded.
	ErrModelLoad = errors.New("model load failed")

	// ErrEngine indicates the engine failed while transcribing.
	ErrEngine = errors.New("transcription failed")

	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("model file not found")
)
