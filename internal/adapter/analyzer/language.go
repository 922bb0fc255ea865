package analyzer

import (
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/de"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/analysis/lang/it"
	"github.com/blevesearch/bleve/v2/analysis/lang/nl"
	"github.com/blevesearch/bleve/v2/analysis/lang/pt"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/spanish"

	"mdindex/internal/domain"
)

// languageSpec is the static description of one supported language.
type languageSpec struct {
	stopWords []byte
	stem      func(*snowballstem.Env) bool
	// capitalizedNouns is set for languages that capitalize every noun.
	// A capitalized word there is a common noun only with a noun suffix or
	// after an article; otherwise it is taken for a name.
	capitalizedNouns bool
	nounSuffixes     []string
	articles         map[string]bool
	// inverted holds pronouns that follow a sentence-initial verb, as in
	// "Installieren Sie".
	inverted     map[string]bool
	verbSuffixes []string
	adjSuffixes  []string
	advSuffixes  []string
}

var germanNounSuffixes = []string{
	"ung", "ungen", "heit", "heiten", "keit", "keiten", "schaft", "schaften",
	"ion", "ionen", "tät", "täten", "ismus", "ling", "linge", "nis", "nisse",
	"tum", "chen", "lein", "ment", "ik", "enz", "anz", "ur",
}

// articles and contractions that precede a common noun
var germanArticles = toSet(`der die das den dem des ein eine einen einem einer
eines kein keine keinen keinem keiner keines mein meine meinen meinem meiner
dein deine sein seine seinen seinem ihr ihre ihren ihrem unser unsere dieser
diese dieses diesen diesem jeder jede jedes jeden jedem welche alle viele
einige mehrere zum zur im am vom beim ins ans`)

var languages = map[string]languageSpec{
	"en": {
		stopWords:   en.EnglishStopWords,
		adjSuffixes: []string{"able", "ible", "ful", "ous", "ive", "less", "ical", "ish"},
		advSuffixes: []string{"ly"},
	},
	"de": {
		stopWords:        de.GermanStopWords,
		stem:             german.Stem,
		capitalizedNouns: true,
		nounSuffixes:     germanNounSuffixes,
		articles:         germanArticles,
		inverted:         toSet(`sie wir`),
		verbSuffixes:     []string{"ieren", "eln", "ern", "en"},
		adjSuffixes:      []string{"ig", "lich", "isch", "bar", "sam", "los", "ige", "iger", "igen", "liche", "lichen", "ische", "ischen"},
	},
	"fr": {
		stopWords:    fr.FrenchStopWords,
		stem:         french.Stem,
		verbSuffixes: []string{"er", "ir", "re"},
		adjSuffixes:  []string{"able", "ible", "eux", "euse", "ique", "if", "ive"},
		advSuffixes:  []string{"ment"},
	},
	"es": {
		stopWords:    es.SpanishStopWords,
		stem:         spanish.Stem,
		verbSuffixes: []string{"ar", "er", "ir"},
		adjSuffixes:  []string{"able", "ible", "oso", "osa", "ico", "ica"},
		advSuffixes:  []string{"mente"},
	},
	"it": {
		stopWords:    it.ItalianStopWords,
		stem:         italian.Stem,
		verbSuffixes: []string{"are", "ere", "ire"},
		adjSuffixes:  []string{"abile", "ibile", "oso", "osa", "ico", "ica"},
		advSuffixes:  []string{"mente"},
	},
	"nl": {
		stopWords:    nl.DutchStopWords,
		stem:         dutch.Stem,
		verbSuffixes: []string{"en"},
		adjSuffixes:  []string{"baar", "lijk", "ig", "isch"},
	},
	"pt": {
		stopWords:    pt.PortugueseStopWords,
		stem:         portuguese.Stem,
		verbSuffixes: []string{"ar", "er", "ir"},
		adjSuffixes:  []string{"ável", "ível", "oso", "osa", "ico", "ica"},
		advSuffixes:  []string{"mente"},
	},
}

// SupportedLanguages lists the language prefixes a rules model can be built for.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languages))
	for code := range languages {
		out = append(out, code)
	}
	return out
}

// language is a loaded languageSpec.
type language struct {
	code      string
	spec      languageSpec
	stopWords analysis.TokenMap
}

func loadLanguage(code string) (*language, error) {
	spec, ok := languages[code]
	if !ok {
		return nil, domain.ErrModelNotInstalled
	}
	stops := analysis.NewTokenMap()
	if err := stops.LoadBytes(spec.stopWords); err != nil {
		return nil, err
	}
	return &language{code: code, spec: spec, stopWords: stops}, nil
}

func (l *language) isStop(lower string) bool {
	return l.stopWords[lower]
}

// wordContext is a word together with its lower-cased neighbours in the
// same sentence. prev and next are empty at sentence edges.
type wordContext struct {
	word          string
	lower         string
	sentenceStart bool
	prev          string
	next          string
}

// classify assigns a part-of-speech category to a non-stop word.
func (l *language) classify(w wordContext) domain.POS {
	word, lower := w.word, w.lower
	if isAcronym(word) || hasInnerUpper(word) {
		return domain.POSPropNoun
	}
	if l.spec.capitalizedNouns && startsUpper(word) {
		switch {
		case hasAnySuffix(lower, l.spec.nounSuffixes), l.spec.articles[w.prev]:
			return domain.POSNoun
		case w.sentenceStart && l.spec.inverted[w.next]:
			return domain.POSVerb
		}
		return domain.POSPropNoun
	}
	if startsUpper(word) && !w.sentenceStart {
		return domain.POSPropNoun
	}
	if l.code == "en" {
		if startsUpper(word) && singularSubject(w) {
			return domain.POSPropNoun
		}
		return l.classifyEnglish(w)
	}
	switch {
	case hasAnySuffix(lower, l.spec.advSuffixes):
		return domain.POSOther
	case hasAnySuffix(lower, l.spec.adjSuffixes):
		return domain.POSAdj
	case hasAnySuffix(lower, l.spec.verbSuffixes):
		return domain.POSVerb
	case l.spec.capitalizedNouns:
		// lower-case German words that are neither verbs nor adjectives
		return domain.POSOther
	}
	return domain.POSNoun
}

// lemma returns the dictionary-like form of lower for the given category.
func (l *language) lemma(lower string, pos domain.POS) string {
	if l.code == "en" {
		return lemmatizeEnglish(lower, pos)
	}
	switch pos {
	case domain.POSNoun, domain.POSVerb, domain.POSAdj:
		env := snowballstem.NewEnv(lower)
		l.spec.stem(env)
		return env.Current()
	}
	return lower
}

func hasAnySuffix(word string, suffixes []string) bool {
	for _, s := range suffixes {
		if len(word) > len(s)+1 && strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}
