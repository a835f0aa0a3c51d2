package extract

import (
	"slices"
	"strings"

	"github.com/poiesic/refinery/core"
)

var capabilities = map[string]core.Capability{
	"mp3":  core.CapabilityAudio,
	"wav":  core.CapabilityAudio,
	"m4a":  core.CapabilityAudio,
	"png":  core.CapabilityImage,
	"jpg":  core.CapabilityImage,
	"jpeg": core.CapabilityImage,
	"pdf":  core.CapabilityPdf,
	"txt":  core.CapabilityText,
	"md":   core.CapabilityText,
	"json": core.CapabilityText,
	"xml":  core.CapabilityText,
	"csv":  core.CapabilityText,
}

// Dispatch maps a file extension to its extraction capability. Matching is
// case-insensitive and a leading dot is ignored.
func Dispatch(ext string) (core.Capability, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if c, ok := capabilities[ext]; ok {
		return c, nil
	}
	return 0, &UnsupportedTypeError{Ext: ext}
}

// Extensions returns the sorted extensions routed to c.
func Extensions(c core.Capability) []string {
	var out []string
	for ext, got := range capabilities {
		if got == c {
			out = append(out, ext)
		}
	}
	slices.Sort(out)
	return out
}
