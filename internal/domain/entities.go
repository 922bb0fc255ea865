package domain

import (
	"sort"
	"strings"
)

// UnknownLanguage is stored when language detection gives no usable answer.
const UnknownLanguage = "unknown"

// Record is the persisted indexing state of one document, keyed by Name.
type Record struct {
	Name     string
	Path     string
	ModTime  float64 // seconds since epoch, sub-second precision
	Language string
	Keywords []string
	Content  string
	// HasContent is false for records written before content was persisted.
	HasContent bool
}

// Lang returns the stored language, treating an empty value as unknown.
func (r Record) Lang() string {
	if r.Language == "" {
		return UnknownLanguage
	}
	return r.Language
}

// JoinKeywords returns the canonical sorted, comma-joined keyword string.
func JoinKeywords(keywords []string) string {
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			set[kw] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// SplitKeywords parses a canonical keyword string.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// POS is the closed set of part-of-speech categories the extractor consumes.
type POS int

const (
	POSOther POS = iota
	POSNoun
	POSPropNoun
	POSVerb
	POSAdj
	POSNum
	POSPunct
	POSSpace
)

func (p POS) String() string {
	switch p {
	case POSNoun:
		return "NOUN"
	case POSPropNoun:
		return "PROPN"
	case POSVerb:
		return "VERB"
	case POSAdj:
		return "ADJ"
	case POSNum:
		return "NUM"
	case POSPunct:
		return "PUNCT"
	case POSSpace:
		return "SPACE"
	default:
		return "X"
	}
}

// Dependency roles the extractor cares about.
const (
	DepRoot = "ROOT"
)

// Token is one annotated token produced by a tagging model.
type Token struct {
	Text    string
	Lemma   string
	POS     POS
	Dep     string
	IsStop  bool
	IsPunct bool
	IsSpace bool
}

// FileEntry is a listing/search result.
type FileEntry struct {
	Name     string   `json:"filename"`
	URI      string   `json:"uri"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
}

// KeywordCount is one row of the keyword aggregation.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SearchHit is one full-text search result.
type SearchHit struct {
	Name    string `json:"filename"`
	Matches int    `json:"matches"`
	Preview string `json:"preview"`
}
