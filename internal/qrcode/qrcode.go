// Package qrcode defines how a resolved URL is handed off to be rendered as
// a QR code image. The rendering itself is an external collaborator; this
// package only reuses the
// three-tier lookup result and defines the narrow interface the httpapi
// layer calls through, so the core's test surface never depends on
// actual image bytes.
package qrcode

import (
	"context"
	"errors"
)

// Format is an image encoding accepted by the qr endpoint.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrUnsupportedFormat is returned for any format other than png or svg.
var ErrUnsupportedFormat = errors.New("qrcode: unsupported format")

// Renderer is implemented by the external collaborator that turns a URL
// into image bytes. A production binary wires this to a real QR library;
// tests substitute a stub.
type Renderer interface {
	Render(ctx context.Context, content string, format Format, size int) ([]byte, string, error)
}

// ContentType returns the MIME type for a Format.
func ContentType(f Format) string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return ""
	}
}

// ParseFormat validates a query-string format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG:
		return Format(s), nil
	default:
		return "", ErrUnsupportedFormat
	}
}
