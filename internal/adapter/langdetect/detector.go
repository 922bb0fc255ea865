package langdetect

import (
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"

	"mdindex/internal/domain"
)

// Detector guesses the language of a document with trigram statistics.
type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger.With("component", "langdetect")}
}

// Detect returns the ISO-639-1 code of text, or domain.UnknownLanguage when
// the text is empty or the language has no two-letter code. It never fails.
func (d *Detector) Detect(text string) (lang string) {
	if strings.TrimSpace(text) == "" {
		return domain.UnknownLanguage
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("language detection failed", "panic", r)
			lang = domain.UnknownLanguage
		}
	}()

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return domain.UnknownLanguage
	}
	return code
}
