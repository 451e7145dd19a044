// Package qrtoken renders display tokens for purchased passes. The token is
// a QR image of a human-readable summary, for display and offline eyeballing
// only; it carries no cryptographic integrity guarantee.
package qrtoken

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered QR image width/height in pixels.
const DefaultSize = 256

// Generator encodes pass summaries as QR data URLs
type Generator struct {
	size int
}

// NewGenerator creates a generator with the default image size
func NewGenerator() *Generator {
	return &Generator{size: DefaultSize}
}

// NewGeneratorWithSize creates a generator with a custom image size
func NewGeneratorWithSize(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{size: size}
}

// Encode renders text as a PNG QR code and returns it as a base64 data URL,
// matching what web clients can drop straight into an <img> tag.
func (g *Generator) Encode(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("cannot encode empty text")
	}

	png, err := qrcode.Encode(text, qrcode.Medium, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
