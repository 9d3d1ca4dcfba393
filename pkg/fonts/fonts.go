// Package fonts provides the embedded monospace font used by the renderers.
//
// The font is Go Mono, shipped inside golang.org/x/image, so raster output
// has the same glyphs on every machine without a system font lookup.
package fonts

import (
	"encoding/base64"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// FontFamily is the CSS font-family name for the embedded font.
const FontFamily = "Go Mono"

// FallbackFontFamily lists fallbacks for SVG viewers that ignore embedded
// fonts.
const FallbackFontFamily = `'Go Mono', 'DejaVu Sans Mono', Menlo, Consolas, monospace`

// MonoTTF returns the TTF font data.
func MonoTTF() []byte {
	return gomono.TTF
}

var (
	monoOnce sync.Once
	mono     *truetype.Font
	monoErr  error

	ttfBase64     string
	ttfBase64Once sync.Once
)

// Mono returns the parsed font. Parsing happens once.
func Mono() (*truetype.Font, error) {
	monoOnce.Do(func() {
		mono, monoErr = truetype.Parse(gomono.TTF)
	})
	return mono, monoErr
}

// MonoFace returns a face of the embedded font at the given point size.
func MonoFace(points float64) (font.Face, error) {
	f, err := Mono()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points, Hinting: font.HintingFull}), nil
}

// MonoTTFBase64 returns the TTF data as a base64 string, for data URLs.
// The result is cached after first computation.
func MonoTTFBase64() string {
	ttfBase64Once.Do(func() {
		ttfBase64 = base64.StdEncoding.EncodeToString(gomono.TTF)
	})
	return ttfBase64
}

// FontFaceCSS returns an @font-face rule embedding the font.
func FontFaceCSS() string {
	return "@font-face{font-family:'" + FontFamily + "';src:url(data:font/ttf;base64," + MonoTTFBase64() + ") format('truetype');}"
}
