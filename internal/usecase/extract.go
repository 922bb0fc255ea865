package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"mdindex/internal/adapter/markup"
	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// Extractor turns Markdown text into a normalized keyword set.
type Extractor struct {
	models port.ModelResolver
}

// NewExtractor creates a new extractor over a model resolver.
func NewExtractor(models port.ModelResolver) *Extractor {
	return &Extractor{models: models}
}

// Extract tags headings and the markup-free body with the model for lang
// and returns the sorted, deduplicated keywords. Heading words of any
// content category count; in the body only nouns, proper nouns and
// sentence-root verbs do.
func (e *Extractor) Extract(ctx context.Context, text, lang string) ([]string, error) {
	model, err := e.models.Resolve(ctx, lang)
	if err != nil {
		return nil, err
	}

	keywords := make(map[string]struct{})

	for _, line := range strings.Split(text, "\n") {
		heading, ok := markup.HeadingText(line)
		if !ok {
			continue
		}
		tokens, err := model.Tag(ctx, heading)
		if err != nil {
			return nil, fmt.Errorf("tag heading: %w", err)
		}
		for _, tok := range tokens {
			if skipToken(tok) {
				continue
			}
			switch tok.POS {
			case domain.POSNoun, domain.POSPropNoun, domain.POSVerb, domain.POSAdj:
				addKeyword(keywords, tok)
			}
		}
	}

	tokens, err := model.Tag(ctx, markup.Strip(text))
	if err != nil {
		return nil, fmt.Errorf("tag body: %w", err)
	}
	for _, tok := range tokens {
		if skipToken(tok) {
			continue
		}
		switch tok.POS {
		case domain.POSNoun, domain.POSPropNoun:
			addKeyword(keywords, tok)
		case domain.POSVerb:
			if tok.Dep == domain.DepRoot {
				addKeyword(keywords, tok)
			}
		}
	}

	out := make([]string, 0, len(keywords))
	for kw := range Deduplicate(keywords) {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out, nil
}

func skipToken(tok domain.Token) bool {
	return tok.IsStop || tok.IsPunct || tok.IsSpace || utf8.RuneCountInString(tok.Text) <= 1
}

// keywordForm keeps proper nouns as written, since lemmatizers mangle
// names, and uses the lemma for everything else.
func keywordForm(tok domain.Token) string {
	if tok.POS == domain.POSPropNoun {
		return strings.ToLower(tok.Text)
	}
	return strings.ToLower(tok.Lemma)
}

func addKeyword(set map[string]struct{}, tok domain.Token) {
	if kw := strings.TrimSpace(keywordForm(tok)); kw != "" {
		set[kw] = struct{}{}
	}
}

// Deduplicate drops truncated stems: a keyword of at least four characters
// is removed when a longer keyword starts with it and is at most three
// characters longer. Candidates are visited by ascending length, then
// lexically, and the first match wins. The input set is not modified.
func Deduplicate(keywords map[string]struct{}) map[string]struct{} {
	sorted := make([]string, 0, len(keywords))
	for kw := range keywords {
		sorted = append(sorted, kw)
	}
	sort.Slice(sorted, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(sorted[i]), utf8.RuneCountInString(sorted[j])
		if li != lj {
			return li < lj
		}
		return sorted[i] < sorted[j]
	})

	drop := make(map[string]struct{})
	for i, short := range sorted {
		shortLen := utf8.RuneCountInString(short)
		if shortLen < 4 {
			continue
		}
		for _, long := range sorted[i+1:] {
			if strings.HasPrefix(long, short) && utf8.RuneCountInString(long)-shortLen <= 3 {
				drop[short] = struct{}{}
				break
			}
		}
	}

	out := make(map[string]struct{}, len(keywords)-len(drop))
	for kw := range keywords {
		if _, ok := drop[kw]; !ok {
			out[kw] = struct{}{}
		}
	}
	return out
}
