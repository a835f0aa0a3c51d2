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

//go:build whisper

package engine

import (
	"context"
	"fmt"
	"io"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/poiesic/refinery/audio"
)

// whisperEngine runs whisper.cpp in process. The model is shared; each call
// gets its own decoding context.
type whisperEngine struct {
	model  whisper.Model
	params Params
}

var _ Engine = (*whisperEngine)(nil)

// NewLoader returns a Loader for the in-process whisper.cpp engine.
func NewLoader(params Params) Loader {
	params.Normalize()
	return func() (Engine, error) {
		if err := CheckModel(params.ModelPath); err != nil {
			return nil, err
		}
		model, err := whisper.New(params.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("load whisper model %q: %w", params.ModelPath, err)
		}
		return &whisperEngine{model: model, params: params}, nil
	}
}

// Backend names the compiled-in engine implementation.
const Backend = "whisper.cpp"

func (e *whisperEngine) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	if buf.SampleRate != whisper.SampleRate {
		return "", fmt.Errorf("sample rate %d, want %d", buf.SampleRate, whisper.SampleRate)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create context: %w", err)
	}
	if err := wctx.SetLanguage(e.params.Language); err != nil {
		return "", fmt.Errorf("set language %q: %w", e.params.Language, err)
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(uint(e.params.Threads))
	wctx.SetTemperature(0)

	if err := wctx.Process(buf.Samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var segments []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		segments = append(segments, seg.Text)
	}
	return JoinSegments(segments), nil
}

func (e *whisperEngine) Close() error {
	return e.model.Close()
}
