package extract

import (
	"errors"
	"testing"

	"github.com/poiesic/refinery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	tests := []struct {
		ext  string
		want core.Capability
	}{
		{"mp3", core.CapabilityAudio},
		{"wav", core.CapabilityAudio},
		{"m4a", core.CapabilityAudio},
		{"png", core.CapabilityImage},
		{"jpg", core.CapabilityImage},
		{"jpeg", core.CapabilityImage},
		{"pdf", core.CapabilityPdf},
		{"txt", core.CapabilityText},
		{"md", core.CapabilityText},
		{"json", core.CapabilityText},
		{"xml", core.CapabilityText},
		{"csv", core.CapabilityText},
		{"MP3", core.CapabilityAudio},
		{".Jpeg", core.CapabilityImage},
		{".PDF", core.CapabilityPdf},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := Dispatch(tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatch_Unsupported(t *testing.T) {
	for _, ext := range []string{"exe", "", "docx", ".GIF", "mp4"} {
		t.Run(ext, func(t *testing.T) {
			_, err := Dispatch(ext)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedType)

			var typeErr *UnsupportedTypeError
			require.True(t, errors.As(err, &typeErr))
		})
	}

	_, err := Dispatch(".EXE")
	assert.EqualError(t, err, "Unsupported file type: .exe")
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{"m4a", "mp3", "wav"}, Extensions(core.CapabilityAudio))
	assert.Equal(t, []string{"jpeg", "jpg", "png"}, Extensions(core.CapabilityImage))
	assert.Equal(t, []string{"pdf"}, Extensions(core.CapabilityPdf))
	assert.Equal(t, []string{"csv", "json", "md", "txt", "xml"}, Extensions(core.CapabilityText))
}
