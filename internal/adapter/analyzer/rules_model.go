package analyzer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// ModelSuffix is the name suffix of the built-in rule-based models, as in
// "en_rules".
const ModelSuffix = "rules"

// RulesModel tags text with a lexicon and suffix heuristics for one language.
type RulesModel struct {
	name      string
	lang      *language
	tokenizer *Tokenizer
}

func (m *RulesModel) Name() string {
	return m.name
}

// Language returns the ISO-639-1 code the model was built for.
func (m *RulesModel) Language() string {
	return m.lang.code
}

// Tag splits text into tokens and annotates each with a lemma, a
// part-of-speech category and stop/punct/space flags. The first verb of
// every sentence is marked as the sentence root. Proper nouns keep the
// lower-cased surface form as lemma.
func (m *RulesModel) Tag(ctx context.Context, text string) ([]domain.Token, error) {
	if !utf8.ValidString(text) {
		return nil, domain.ErrInvalidEncoding
	}

	pieces := m.tokenizer.Split(text)
	tokens := make([]domain.Token, 0, len(pieces))
	rooted := make(map[int]bool)

	for i, p := range pieces {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		switch p.Kind {
		case pieceSpace:
			tokens = append(tokens, domain.Token{Text: p.Text, Lemma: p.Text, POS: domain.POSSpace, IsSpace: true})
			continue
		case piecePunct:
			tokens = append(tokens, domain.Token{Text: p.Text, Lemma: p.Text, POS: domain.POSPunct, IsPunct: true})
			continue
		case pieceNumber:
			tokens = append(tokens, domain.Token{Text: p.Text, Lemma: p.Text, POS: domain.POSNum})
			continue
		}

		lower := strings.ToLower(p.Text)
		tok := domain.Token{Text: p.Text, Lemma: lower}
		if !isAcronym(p.Text) && m.lang.isStop(lower) {
			tok.IsStop = true
			tokens = append(tokens, tok)
			continue
		}

		tok.POS = m.lang.classify(wordContext{
			word:          p.Text,
			lower:         lower,
			sentenceStart: p.SentenceStart,
			prev:          neighbour(pieces, i, -1),
			next:          neighbour(pieces, i, 1),
		})
		if tok.POS != domain.POSPropNoun {
			tok.Lemma = m.lang.lemma(lower, tok.POS)
		}
		if tok.POS == domain.POSVerb && !rooted[p.Sentence] {
			tok.Dep = domain.DepRoot
			rooted[p.Sentence] = true
		}
		tokens = append(tokens, tok)
	}
	keepNames(tokens)
	return tokens, nil
}

// keepNames retags capitalized common nouns as proper nouns when the same
// word is tagged as a name elsewhere in the text, so that a name at the
// start of a sentence or after an article keeps its surface form.
func keepNames(tokens []domain.Token) {
	names := make(map[string]bool)
	for _, tok := range tokens {
		if tok.POS == domain.POSPropNoun {
			names[strings.ToLower(tok.Text)] = true
		}
	}
	if len(names) == 0 {
		return
	}
	for i := range tokens {
		tok := &tokens[i]
		if tok.POS != domain.POSNoun || !startsUpper(tok.Text) {
			continue
		}
		if lower := strings.ToLower(tok.Text); names[lower] {
			tok.POS = domain.POSPropNoun
			tok.Lemma = lower
		}
	}
}

// neighbour returns the lower-cased adjacent word in the same sentence,
// looking past whitespace only.
func neighbour(pieces []piece, i, step int) string {
	sentence := pieces[i].Sentence
	for j := i + step; j >= 0 && j < len(pieces); j += step {
		p := pieces[j]
		if p.Sentence != sentence {
			return ""
		}
		switch p.Kind {
		case pieceSpace:
			continue
		case pieceWord:
			return strings.ToLower(p.Text)
		}
		return ""
	}
	return ""
}

// Loader builds rule-based models from names of the form "<lang>_rules".
type Loader struct {
	tokenizer *Tokenizer
}

func NewLoader() *Loader {
	return &Loader{tokenizer: NewTokenizer()}
}

// Load returns the model for name, or an error wrapping
// domain.ErrModelNotInstalled when no such model exists.
func (l *Loader) Load(name string) (port.Model, error) {
	code, suffix, ok := strings.Cut(name, "_")
	if !ok || suffix != ModelSuffix {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotInstalled, name)
	}
	lang, err := loadLanguage(code)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return &RulesModel{name: name, lang: lang, tokenizer: l.tokenizer}, nil
}
