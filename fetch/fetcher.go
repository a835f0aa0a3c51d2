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

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/refinery/tempfile"
)

// Config controls fetch limits and retries.
type Config struct {
	// TempDir is where fetched content is written. Empty means os.TempDir().
	TempDir string

	// MaxBodyBytes caps a URL download. Zero or less means unlimited.
	MaxBodyBytes int64

	// MaxUploadBytes caps a multipart upload. Zero or less means unlimited.
	MaxUploadBytes int64

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of tries for retryable failures.
	MaxAttempts int

	// RetryDelay is the first backoff delay; it doubles per attempt.
	RetryDelay time.Duration
}

// DefaultConfig returns limits suited to documents and short recordings.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   100 << 20,
		MaxUploadBytes: 100 << 20,
		Timeout:        60 * time.Second,
		MaxAttempts:    3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Fetcher materializes remote or uploaded content as temporary files.
type Fetcher struct {
	cfg    Config
	client *http.Client
	s3     ObjectGetter
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithS3 enables s3:// URLs through getter.
func WithS3(getter ObjectGetter) Option {
	return func(f *Fetcher) {
		f.s3 = getter
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	f := &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromURL downloads rawURL into a temporary file named after filename so its
// extension is preserved. 5xx responses and transport failures are retried.
func (f *Fetcher) FromURL(ctx context.Context, rawURL, filename string) (*tempfile.Resource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedScheme, err)
	}

	var open func(context.Context) (io.ReadCloser, error)
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		open = func(ctx context.Context) (io.ReadCloser, error) { return f.get(ctx, u) }
	case "s3":
		open = func(ctx context.Context) (io.ReadCloser, error) { return f.getObject(ctx, u) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	var res *tempfile.Resource
	err = RetryWithBackoff(ctx, func() error {
		body, err := open(ctx)
		if err != nil {
			return err
		}
		defer body.Close()

		r, n, err := tempfile.CreateFromReader(f.cfg.TempDir, filename, body, f.cfg.MaxBodyBytes)
		if errors.Is(err, tempfile.ErrTooLarge) {
			return Permanent(err)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		if n == 0 {
			r.Release()
			return Permanent(ErrNoContent)
		}
		res = r
		return nil
	}, f.cfg.MaxAttempts, f.cfg.RetryDelay)
	if err != nil {
		f.logger.Warn("fetch failed", "url", redact(u), "err", err)
		return nil, err
	}

	f.logger.Debug("fetched", "url", redact(u), "path", res.Path())
	return res, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, Permanent(fmt.Errorf("%w: %w", ErrNetwork, err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
		if statusErr.Retryable() {
			return nil, statusErr
		}
		return nil, Permanent(statusErr)
	}
	return resp.Body, nil
}

// FromMultipart stores the first part that carries a filename and returns
// it with the client supplied name.
func (f *Fetcher) FromMultipart(r *multipart.Reader) (*tempfile.Resource, string, error) {
	for {
		part, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", ErrNoContent
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrNetwork, err)
		}

		name := part.FileName()
		if name == "" {
			part.Close()
			continue
		}

		res, n, err := tempfile.CreateFromReader(f.cfg.TempDir, name, part, f.cfg.MaxUploadBytes)
		part.Close()
		if err != nil {
			if errors.Is(err, tempfile.ErrTooLarge) {
				return nil, "", err
			}
			return nil, "", fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		if n == 0 {
			res.Release()
			return nil, "", ErrNoContent
		}
		return res, name, nil
	}
}

// redact drops credentials and query strings from log output.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}
