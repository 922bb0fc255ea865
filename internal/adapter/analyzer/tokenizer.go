package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

type pieceKind int

const (
	pieceWord pieceKind = iota
	pieceNumber
	piecePunct
	pieceSpace
)

// piece is a span of the input with its sentence position.
type piece struct {
	Text          string
	Kind          pieceKind
	Sentence      int
	SentenceStart bool
}

// Tokenizer splits text into word, number, punctuation and whitespace pieces
// and tracks sentence boundaries.
type Tokenizer struct {
	words *bleveunicode.UnicodeTokenizer
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{words: bleveunicode.NewUnicodeTokenizer()}
}

// Split segments text. Words come from Unicode word segmentation; the gaps
// between them become punctuation and whitespace pieces. A sentence ends at
// '.', '!', '?' or a line break.
func (t *Tokenizer) Split(text string) []piece {
	input := []byte(text)
	stream := t.words.Tokenize(input)

	s := &splitState{pieces: make([]piece, 0, len(stream)*2), atStart: true}
	prev := 0
	for _, tok := range stream {
		if tok.Start > prev {
			s.gap(text[prev:tok.Start])
		}
		kind := pieceWord
		if tok.Type == analysis.Numeric {
			kind = pieceNumber
		}
		s.emit(string(tok.Term), kind)
		s.atStart = false
		prev = tok.End
	}
	if prev < len(text) {
		s.gap(text[prev:])
	}
	return s.pieces
}

type splitState struct {
	pieces   []piece
	sentence int
	atStart  bool
}

func (s *splitState) emit(text string, kind pieceKind) {
	s.pieces = append(s.pieces, piece{
		Text:          text,
		Kind:          kind,
		Sentence:      s.sentence,
		SentenceStart: s.atStart && (kind == pieceWord || kind == pieceNumber),
	})
}

func (s *splitState) boundary() {
	if !s.atStart {
		s.sentence++
		s.atStart = true
	}
}

func (s *splitState) gap(gap string) {
	var space strings.Builder
	flushSpace := func() {
		if space.Len() > 0 {
			s.emit(space.String(), pieceSpace)
			space.Reset()
		}
	}

	for len(gap) > 0 {
		r, size := utf8.DecodeRuneInString(gap)
		gap = gap[size:]

		if unicode.IsSpace(r) {
			space.WriteRune(r)
			if r == '\n' {
				s.boundary()
			}
			continue
		}

		flushSpace()
		s.emit(string(r), piecePunct)
		if r == '.' || r == '!' || r == '?' {
			s.boundary()
		}
	}
	flushSpace()
}

// isAcronym reports whether word is two or more runes, all upper-case
// letters or digits, with at least one letter.
func isAcronym(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	letters := 0
	for _, r := range word {
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return letters > 0
}

// hasInnerUpper catches mixed-case names like GitHub or iPhone.
func hasInnerUpper(word string) bool {
	for i, r := range word {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func startsUpper(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}
