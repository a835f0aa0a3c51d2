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
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ffmpegTimeout = 5 * time.Minute

// openFFmpeg converts the primary audio track of path to a 16-bit WAV with
// ffmpeg at its native rate and channel layout, then decodes that WAV.
func (t *Transformer) openFFmpeg(path string) (packetSource, error) {
	bin, err := exec.LookPath(t.ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found: %w", ErrUnsupportedFormat, err)
	}

	dir := t.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	out := filepath.Join(dir, "pcm_"+uuid.NewString()+".wav")

	ctx, cancel := context.WithTimeout(context.Background(), ffmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"-nostdin", "-v", "error", "-y",
		"-i", path,
		"-map", "0:a:0",
		"-vn",
		"-c:a", "pcm_s16le",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(out)
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: ffmpeg: %s", ErrDecode, msg)
	}

	src, err := openWAV(out)
	if err != nil {
		os.Remove(out)
		return nil, err
	}
	return &convertedSource{wavSource: src, path: out}, nil
}

// convertedSource removes the intermediate WAV on Close.
type convertedSource struct {
	*wavSource
	path string
}

func (c *convertedSource) Close() error {
	err := c.wavSource.Close()
	if rmErr := os.Remove(c.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
