package translate

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/metrics"
)

const minTranslatable = 3

// Best returns the translation of text, or text itself when there is no
// translator, the text is too short, or translation fails.
func Best(ctx context.Context, t extractor.Translator, text string, logger *zap.Logger) string {
	if t == nil || utf8.RuneCountInString(strings.TrimSpace(text)) < minTranslatable {
		return text
	}
	out, err := t.Translate(ctx, text)
	if err != nil {
		metrics.ObserveTranslation("failed")
		if logger != nil {
			logger.Warn("translation unavailable, keeping original", zap.Error(err))
		}
		return text
	}
	if strings.TrimSpace(out) == "" {
		metrics.ObserveTranslation("empty")
		return text
	}
	metrics.ObserveTranslation("ok")
	return out
}
