package services

import (
	"context"
	"log/slog"

	"github.com/codessa-project/inkwell/internal/models"
)

// ParseOrFallback runs the parser and substitutes the fixed fallback
// payload on any failure: network, timeout, malformed response. Parse
// problems are recovered here and never surface as hard failures.
func ParseOrFallback(ctx context.Context, p Parser, text string, log *slog.Logger) *models.ParsedContent {
	if log == nil {
		log = slog.Default()
	}
	parsed, err := p.Parse(ctx, text)
	if err != nil {
		log.Warn("parse failed, using fallback content", "error", err)
		return models.FallbackParsedContent()
	}
	if parsed == nil {
		log.Warn("parser returned no content, using fallback")
		return models.FallbackParsedContent()
	}
	return parsed
}
