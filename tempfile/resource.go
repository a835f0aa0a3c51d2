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

package tempfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const namePrefix = "upload_"

// Resource is a file on local storage whose lifetime is bound to the scope
// that owns it. The owner calls Release, normally with defer, and the file is
// deleted at most once. A Resource that becomes unreachable without Release or
// Detach is removed by a runtime cleanup.
type Resource struct {
	path    string
	name    string
	once    sync.Once
	cleanup runtime.Cleanup
	logger  *slog.Logger
}

// Create writes data to a fresh file in dir named after suggestedName.
// An empty dir means os.TempDir().
func Create(dir, suggestedName string, data []byte) (*Resource, error) {
	f, name, err := open(dir, suggestedName)
	if err != nil {
		return nil, err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	return newResource(f.Name(), name), nil
}

// CreateFromReader streams r into a fresh file in dir and returns the number of
// bytes written. When limit is positive and r yields more than limit bytes,
// ErrTooLarge is returned and nothing is left on disk.
func CreateFromReader(dir, suggestedName string, r io.Reader, limit int64) (*Resource, int64, error) {
	f, name, err := open(dir, suggestedName)
	if err != nil {
		return nil, 0, err
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(f, src)
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		if errors.Is(err, ErrTooLarge) {
			return nil, n, err
		}
		return nil, n, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, n, fmt.Errorf("failed to close temp file: %w", err)
	}

	return newResource(f.Name(), name), n, nil
}

func open(dir, suggestedName string) (*os.File, string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	name := SanitizeName(suggestedName)
	path := filepath.Join(dir, namePrefix+uuid.NewString()+"_"+name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp file: %w", err)
	}
	return f, name, nil
}

func newResource(path, name string) *Resource {
	r := &Resource{
		path:   path,
		name:   name,
		logger: slog.Default().With("component", "tempfile"),
	}
	r.cleanup = runtime.AddCleanup(r, removeQuietly, path)
	return r
}

func removeQuietly(path string) {
	os.Remove(path)
}

// SanitizeName reduces a client supplied filename to a safe base name.
// Path separators are dropped; the extension survives.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// Path returns the location of the file.
func (r *Resource) Path() string {
	return r.path
}

// Name returns the sanitized name the file was created for.
func (r *Resource) Name() string {
	return r.name
}

// Ext returns the lower-cased extension without the leading dot.
func (r *Resource) Ext() string {
	return Ext(r.name)
}

// Release deletes the file if it still exists. It is idempotent and safe for
// concurrent use. Failures other than a missing file are logged, not returned.
func (r *Resource) Release() {
	r.once.Do(func() {
		r.cleanup.Stop()
		if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Error("failed to remove temp file", "path", r.path, "err", err)
			return
		}
		r.logger.Debug("removed temp file", "path", r.path)
	})
}

// Detach hands the file to the caller. Subsequent Release calls are no-ops.
func (r *Resource) Detach() string {
	r.once.Do(func() {
		r.cleanup.Stop()
	})
	return r.path
}

// Ext returns the lower-cased extension of name without the leading dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
