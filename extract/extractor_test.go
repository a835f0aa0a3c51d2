package extract

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/audio"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/offload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecoder struct {
	buf audio.Buffer
	err error
	ext string
}

func (d *fakeDecoder) DecodeAndResample(path, extHint string) (audio.Buffer, error) {
	d.ext = extHint
	return d.buf, d.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	return f.text, f.err
}

type fakeOCR struct {
	text  string
	err   error
	panic bool
}

func (f *fakeOCR) Recognize(ctx context.Context, path string) (string, error) {
	if f.panic {
		panic("tesseract exploded")
	}
	return f.text, f.err
}

func newPool(t *testing.T) *offload.Pool {
	t.Helper()
	pool, err := offload.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func touch(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNew_RequiresPool(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestExtract_Audio(t *testing.T) {
	decoder := &fakeDecoder{buf: audio.Buffer{Samples: []float32{0.5, -1}, SampleRate: audio.TargetSampleRate}}
	e, err := New(newPool(t),
		WithDecoder(decoder),
		WithTranscriber(&fakeTranscriber{text: "hello world"}),
	)
	require.NoError(t, err)

	raw, err := e.Extract(context.Background(), core.CapabilityAudio, touch(t, "upload_x_clip.mp3", []byte("ID3")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello world"}`, string(raw))
	assert.Equal(t, "mp3", decoder.ext)
}

func TestExtract_AudioDecodeError(t *testing.T) {
	e, err := New(newPool(t),
		WithDecoder(&fakeDecoder{err: audio.ErrSilentOrInvalidAudio}),
		WithTranscriber(&fakeTranscriber{text: "unused"}),
	)
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.CapabilityAudio, touch(t, "a.wav", nil))
	assert.ErrorIs(t, err, audio.ErrSilentOrInvalidAudio)
}

func TestExtract_AudioWithoutEngine(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.CapabilityAudio, touch(t, "a.wav", nil))
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestExtract_Image(t *testing.T) {
	describer := mock.NewMockDescriber().WithDescribeFunc(func(ctx context.Context, path string) (string, error) {
		return "a receipt on a table", nil
	})
	e, err := New(newPool(t),
		WithOCR(&fakeOCR{text: "\n  TOTAL 42.00 \n\n"}),
		WithDescriber(describer),
	)
	require.NoError(t, err)

	raw, err := e.Extract(context.Background(), core.CapabilityImage, touch(t, "r.png", []byte("png")))
	require.NoError(t, err)

	var got core.ImageResult
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "TOTAL 42.00", got.OCRText)
	assert.Equal(t, "a receipt on a table", got.VisionDescription)
	assert.Equal(t, 1, describer.CallCount())
}

func TestExtract_ImageWithoutDescriber(t *testing.T) {
	e, err := New(newPool(t), WithOCR(&fakeOCR{text: "sign"}))
	require.NoError(t, err)

	raw, err := e.Extract(context.Background(), core.CapabilityImage, touch(t, "s.jpg", []byte("jpg")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ocr_text":"sign","vision_description":""}`, string(raw))
}

func TestExtract_ImageDescriberError(t *testing.T) {
	boom := errors.New("vision offline")
	describer := mock.NewMockDescriber().WithDescribeFunc(func(ctx context.Context, path string) (string, error) {
		return "", boom
	})
	e, err := New(newPool(t), WithOCR(&fakeOCR{text: "x"}), WithDescriber(describer))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.CapabilityImage, touch(t, "s.jpg", []byte("jpg")))
	assert.ErrorIs(t, err, boom)
}

func TestExtract_OCRPanicIsContained(t *testing.T) {
	e, err := New(newPool(t), WithOCR(&fakeOCR{panic: true}))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.CapabilityImage, touch(t, "s.png", []byte("png")))
	require.Error(t, err)
	assert.ErrorIs(t, err, offload.ErrPanicked)
	assert.Equal(t, "processing failed", err.Error())
}

func TestExtract_Pdf(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	raw, err := e.Extract(context.Background(), core.CapabilityPdf, writePDF(t, "BT /F1 12 Tf 72 712 Td (Invoice 7) Tj ET"))
	require.NoError(t, err)

	var got core.TextResult
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Contains(t, got.Text, "Invoice 7")
}

func TestExtract_PdfWithoutText(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.CapabilityPdf, writePDF(t, ""))
	assert.ErrorIs(t, err, ErrNoTextFound)
}

func TestExtract_Text(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	raw, err := e.Extract(context.Background(), core.CapabilityText, touch(t, "data.csv", []byte("a,b\n1,2\n")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"a,b\n1,2\n"}`, string(raw))
}

func TestExtract_CancelledBeforeStart(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Extract(ctx, core.CapabilityText, touch(t, "a.txt", []byte("x")))
	assert.ErrorIs(t, err, offload.ErrCancelled)
}

func TestExtract_UnknownCapability(t *testing.T) {
	e, err := New(newPool(t))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), core.Capability(99), touch(t, "a.bin", nil))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
