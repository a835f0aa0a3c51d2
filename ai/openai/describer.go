package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/refinery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Describer implements ai.Describer using an OpenAI-compatible multimodal chat API.
type Describer struct {
	client    llms.Model
	prompt    string
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

var _ ai.Describer = (*Describer)(nil)

// newDescriber is an internal constructor that returns the concrete type.
func newDescriber(config *ai.Config) (*Describer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.VisionHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}
	return newDescriberWithModel(client, config), nil
}

func newDescriberWithModel(client llms.Model, config *ai.Config) *Describer {
	config.Normalize()
	return &Describer{
		client:    client,
		prompt:    config.Prompt,
		maxTokens: config.MaxTokens,
		timeout:   config.Timeout,
		logger:    slog.Default().With("component", "openai-describer"),
	}
}

// NewDescriber creates a vision describer using the provided configuration.
//
// Returns ai.Describer interface to enforce abstraction.
func NewDescriber(config *ai.Config) (ai.Describer, error) {
	return newDescriber(config)
}

// Describe sends the image at path with the configured prompt and returns
// the first choice's text.
func (d *Describer) Describe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", ai.ErrEmptyImage
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(d.prompt),
				llms.ImageURLPart(dataURL(imageMIME(path, data), data)),
			},
		},
	}

	callOpts := []llms.CallOption{llms.WithTemperature(0.0)}
	if d.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(d.maxTokens))
	}

	d.logger.Debug("describing image", "path", path, "bytes", len(data))
	response, err := d.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		d.logger.Error("failed to generate description", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		d.logger.Debug("no choices returned from model")
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

// imageMIME sniffs the content type, falling back to the file extension.
func imageMIME(path string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
