// Package httpapi wires the Gin HTTP framing around the writer and
// redirect packages, following encurtador/internal/handler's shape: a
// handler struct over a narrow service interface, JSON in/out, errors
// dispatched by errors.Is to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jhermesn/slugforge/internal/writer"
)

// shortener is the subset of writer.Service the handler depends on,
// defined here so the handler can be tested with a stub.
type shortener interface {
	Shorten(ctx context.Context, req writer.Request) (*writer.Result, error)
}

// WriteHandler serves POST /shorten for write-svc.
type WriteHandler struct {
	svc shortener
}

// NewWriteHandler constructs a WriteHandler.
func NewWriteHandler(svc shortener) *WriteHandler {
	return &WriteHandler{svc: svc}
}

type shortenRequest struct {
	URL   string `json:"url" binding:"required"`
	Alias string `json:"alias"`
	Owner string `json:"owner"`
}

type shortenResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// Shorten handles POST /shorten.
func (h *WriteHandler) Shorten(c *gin.Context) {
	var req shortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Shorten(c.Request.Context(), writer.Request{
		URL:   req.URL,
		Alias: req.Alias,
		Owner: req.Owner,
	})
	if err != nil {
		switch {
		case errors.Is(err, writer.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http or https URL"})
		case errors.Is(err, writer.ErrInvalidAlias):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, writer.ErrAliasTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "alias is already taken"})
		case errors.Is(err, writer.ErrPoolExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no slug available, try again shortly"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to shorten url"})
		}
		return
	}

	c.JSON(http.StatusCreated, shortenResponse{Slug: result.Slug, URL: result.URL})
}
