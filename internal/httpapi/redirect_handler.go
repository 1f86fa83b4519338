package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jhermesn/slugforge/internal/qrcode"
	"github.com/jhermesn/slugforge/internal/redirect"
)

// resolver is the subset of redirect.Lookup the handler depends on.
type resolver interface {
	Resolve(ctx context.Context, slug string) (string, error)
}

// RedirectHandler serves GET /{slug} and GET /{slug}/qr for redirect-svc.
type RedirectHandler struct {
	lookup   resolver
	renderer qrcode.Renderer // may be nil if QR rendering is not wired
}

// NewRedirectHandler constructs a RedirectHandler. renderer may be nil to
// disable QR rendering: the qr endpoint then still answers 400/404/503 from
// the lookup, and 503 for every slug that resolves.
func NewRedirectHandler(lookup resolver, renderer qrcode.Renderer) *RedirectHandler {
	return &RedirectHandler{lookup: lookup, renderer: renderer}
}

// Redirect handles GET /{slug}.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	slug := c.Param("slug")

	url, err := h.lookup.Resolve(c.Request.Context(), slug)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, url)
	case errors.Is(err, redirect.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed slug"})
	case errors.Is(err, redirect.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backing store unavailable"})
	}
}

// QR handles GET /{slug}/qr?format=png|svg&size=<int>.
func (h *RedirectHandler) QR(c *gin.Context) {
	slug := c.Param("slug")

	url, err := h.lookup.Resolve(c.Request.Context(), slug)
	switch {
	case errors.Is(err, redirect.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed slug"})
		return
	case errors.Is(err, redirect.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backing store unavailable"})
		return
	}

	if h.renderer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "qr rendering not configured"})
		return
	}

	format, err := qrcode.ParseFormat(c.DefaultQuery("format", "png"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "256"))
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size must be a positive integer"})
		return
	}

	body, contentType, err := h.renderer.Render(c.Request.Context(), url, format, size)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rendering qr code failed"})
		return
	}
	c.Data(http.StatusOK, contentType, body)
}
