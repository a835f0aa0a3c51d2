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

//go:build !whisper

package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/refinery/audio"
)

// Backend names the compiled-in engine implementation.
const Backend = "whisper-cli"

// CLIBinaryEnv overrides the whisper-cli executable name or path.
const CLIBinaryEnv = "WHISPER_CLI_PATH"

// cliEngine drives the whisper.cpp command line tool. Loading validates the
// binary and model once; every call hands audio over as a temporary WAV.
type cliEngine struct {
	binary string
	params Params
	logger *slog.Logger
}

var _ Engine = (*cliEngine)(nil)

// NewLoader returns a Loader for the whisper-cli engine.
func NewLoader(params Params) Loader {
	params.Normalize()
	return func() (Engine, error) {
		if err := CheckModel(params.ModelPath); err != nil {
			return nil, err
		}

		name := os.Getenv(CLIBinaryEnv)
		if name == "" {
			name = "whisper-cli"
		}
		binary, err := exec.LookPath(name)
		if err != nil {
			return nil, fmt.Errorf("%s not found: install whisper.cpp or build with -tags whisper: %w", name, err)
		}

		return &cliEngine{
			binary: binary,
			params: params,
			logger: slog.Default().With("component", "whisper-cli"),
		}, nil
	}
}

// cliArgs pins greedy decoding. whisper-cli switches to beam search whenever
// the beam size exceeds one, and its default is five.
func cliArgs(params Params, wavPath string) []string {
	return []string{
		"-m", params.ModelPath,
		"-l", params.Language,
		"-t", strconv.Itoa(params.Threads),
		"-tp", "0", // temperature
		"-bs", "1", // beam size
		"-bo", "1", // best-of
		"-nt", // no timestamps
		"-np", // no progress
		"-f", wavPath,
	}
}

func (e *cliEngine) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	wavPath := filepath.Join(os.TempDir(), "whisper_"+uuid.NewString()+".wav")
	f, err := os.Create(wavPath)
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(wavPath)

	if err := audio.WriteWAV(f, buf); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp wav: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.binary, cliArgs(e.params, wavPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.logger.Error("whisper-cli failed", "elapsed", time.Since(start), "stderr", stderr.String(), "err", err)
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	text := JoinSegments(strings.Split(stdout.String(), "\n"))
	e.logger.Debug("transcribed", "seconds", buf.Duration(), "elapsed", time.Since(start))
	return text, nil
}

func (e *cliEngine) Close() error {
	return nil
}
