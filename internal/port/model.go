package port

import (
	"context"

	"mdindex/internal/domain"
)

// Model tokenizes, tags and lemmatizes text for one language.
type Model interface {
	Name() string

	Tag(ctx context.Context, text string) ([]domain.Token, error)
}

// ModelLoader loads a model by identifier. Loading may be expensive.
type ModelLoader interface {
	Load(name string) (Model, error)
}

// ModelResolver picks a model for a language code.
type ModelResolver interface {
	Resolve(ctx context.Context, lang string) (Model, error)
}

// LanguageDetector returns an ISO-639-1 code or "unknown". It never fails.
type LanguageDetector interface {
	Detect(text string) string
}

// KeywordExtractor turns document text into a sorted keyword list.
type KeywordExtractor interface {
	Extract(ctx context.Context, text, lang string) ([]string, error)
}
