package analyzer

import (
	"strings"

	"mdindex/internal/domain"
)

// English has no Snowball step here: stems like "configur" make poor
// keywords, so nouns and verbs are reduced to dictionary forms with a small
// rule set and lexicon instead.

var determiners = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true, "these": true,
	"those": true, "my": true, "your": true, "our": true, "their": true, "its": true,
	"his": true, "her": true, "each": true, "every": true, "some": true, "any": true,
	"no": true, "of": true, "for": true, "in": true, "on": true, "with": true,
	"by": true, "from": true, "about": true, "into": true, "per": true, "via": true,
}

var copulas = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "seems": true, "seem": true, "become": true, "becomes": true,
	"remain": true, "remains": true, "very": true, "more": true, "most": true,
}

var verbLexicon = toSet(`
accept access add adjust allow analyse analyze apply ask assign avoid begin
believe bring build buy call cancel change check choose clean clone close
collect come commit compare compile complete compute configure connect consider
contain continue convert copy cover create cut debug decide define delete
deliver depend deploy describe design detect develop disable discuss display
download drink drive eat edit enable ensure enter evaluate execute expand
expect explain explore export extend extract fail fetch fill find finish fix
fly follow forget generate get give go grow handle happen hate hear help hide
hold identify ignore implement import improve include increase initialize
install integrate introduce keep know launch lead learn leave let like limit
listen live load look lose love maintain make manage mean measure meet merge
migrate monitor move need notice offer open parse pass pay perform pick place
plan play prefer prepare present prevent print produce provide publish pull
push put read receive recommend reduce refer release remember remove render
replace report request require reset resolve restart return review run save
say scale scan search see seem select sell send set share show sign sleep sort
speak spend split stand start stay stop store study submit suggest support
switch take talk teach tell test think track train transform travel try turn
understand update upgrade upload use validate verify visit wait walk want
watch win work write
`)

var irregularVerbs = map[string]string{
	"ran": "run", "wrote": "write", "written": "write", "built": "build",
	"made": "make", "took": "take", "taken": "take", "gave": "give",
	"given": "give", "found": "find", "got": "get", "gotten": "get",
	"went": "go", "gone": "go", "came": "come", "saw": "see", "seen": "see",
	"knew": "know", "known": "know", "began": "begin", "begun": "begin",
	"brought": "bring", "thought": "think", "told": "tell", "said": "say",
	"kept": "keep", "left": "leave", "held": "hold", "meant": "mean",
	"sent": "send", "spent": "spend", "chose": "choose", "chosen": "choose",
	"understood": "understand", "stood": "stand", "lost": "lose",
	"paid": "pay", "met": "meet", "led": "lead", "grew": "grow",
	"grown": "grow", "drove": "drive", "driven": "drive", "spoke": "speak",
	"spoken": "speak", "heard": "hear", "bought": "buy", "sold": "sell",
	"won": "win", "ate": "eat", "eaten": "eat", "slept": "sleep",
	"flew": "fly", "flown": "fly", "taught": "teach", "hid": "hide",
	"hidden": "hide", "learnt": "learn",
}

var irregularNouns = map[string]string{
	"children": "child", "people": "person", "men": "man", "women": "woman",
	"feet": "foot", "teeth": "tooth", "mice": "mouse", "indices": "index",
	"matrices": "matrix", "vertices": "vertex", "analyses": "analysis",
	"theses": "thesis", "criteria": "criterion", "phenomena": "phenomenon",
}

// nouns ending in "che"/"she" whose plural only adds "s"
var silentEPlurals = toSet(`cache niche avalanche headache moustache psyche`)

// words ending in "ly" that are not adverbs
var lyNouns = toSet(`family reply supply assembly apply anomaly italy july
rally belly jelly ally butterfly monopoly bully assembly`)

var verbSuffixesEN = []string{"ize", "izes", "ized", "izing", "ify", "ifies", "ified", "ifying"}

func (l *language) classifyEnglish(w wordContext) domain.POS {
	lower := w.lower
	afterDet := determiners[w.prev]

	if !afterDet {
		if _, ok := verbBase(lower); ok {
			return domain.POSVerb
		}
		if hasAnySuffix(lower, verbSuffixesEN) {
			return domain.POSVerb
		}
	}
	if hasAnySuffix(lower, l.spec.advSuffixes) && !lyNouns[lower] {
		return domain.POSOther
	}
	if hasAnySuffix(lower, l.spec.adjSuffixes) {
		// attributive before a word, predicative after a copula;
		// otherwise the suffix belongs to a noun like "variable"
		if (w.next != "" && !determiners[w.next]) || copulas[w.prev] {
			return domain.POSAdj
		}
	}
	return domain.POSNoun
}

// singularSubject reports whether a sentence-initial word ending in "s"
// is followed by a third-person singular verb, as in "Kubernetes deploys".
// The subject is then singular, so the "s" is part of a name.
func singularSubject(w wordContext) bool {
	if !w.sentenceStart || !strings.HasSuffix(w.lower, "s") || strings.HasSuffix(w.lower, "ss") {
		return false
	}
	if _, ok := verbBase(w.lower); ok {
		return false
	}
	if !strings.HasSuffix(w.next, "s") || strings.HasSuffix(w.next, "ss") {
		return false
	}
	base, ok := verbBase(w.next)
	return ok && base != w.next
}

func lemmatizeEnglish(lower string, pos domain.POS) string {
	switch pos {
	case domain.POSVerb:
		if base, ok := verbBase(lower); ok {
			return base
		}
		return inflectionBase(lower)
	case domain.POSNoun:
		return singular(lower)
	}
	return lower
}

// verbBase maps an inflected form to a lexicon verb.
func verbBase(word string) (string, bool) {
	if base, ok := irregularVerbs[word]; ok {
		return base, true
	}
	if verbLexicon[word] {
		return word, true
	}
	for _, c := range verbCandidates(word) {
		if verbLexicon[c] {
			return c, true
		}
	}
	return "", false
}

func verbCandidates(word string) []string {
	var out []string
	switch {
	case strings.HasSuffix(word, "ies"), strings.HasSuffix(word, "ied"):
		out = append(out, word[:len(word)-3]+"y")
	case strings.HasSuffix(word, "es"):
		out = append(out, word[:len(word)-2], word[:len(word)-1])
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		out = append(out, word[:len(word)-1])
	case strings.HasSuffix(word, "ing") && len(word) > 4:
		stem := word[:len(word)-3]
		out = append(out, stem, stem+"e")
		if endsDoubleConsonant(stem) {
			out = append(out, stem[:len(stem)-1])
		}
	case strings.HasSuffix(word, "ed") && len(word) > 3:
		stem := word[:len(word)-2]
		out = append(out, stem, word[:len(word)-1])
		if endsDoubleConsonant(stem) {
			out = append(out, stem[:len(stem)-1])
		}
	}
	return out
}

// inflectionBase strips -s/-ed/-ing from verbs not in the lexicon.
func inflectionBase(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ied") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		return word[:len(word)-1]
	}

	stem := ""
	switch {
	case strings.HasSuffix(word, "ed"):
		stem = word[:len(word)-2]
	case strings.HasSuffix(word, "ing"):
		stem = word[:len(word)-3]
	}
	if stem == "" || !hasVowel(stem) {
		return word
	}
	if strings.HasSuffix(stem, "at") || strings.HasSuffix(stem, "bl") || strings.HasSuffix(stem, "iz") {
		return stem + "e"
	}
	if endsDoubleConsonant(stem) {
		c := stem[len(stem)-1]
		if c != 'l' && c != 's' && c != 'z' {
			return stem[:len(stem)-1]
		}
	}
	if measure(stem) == 1 && endsCVC(stem) {
		return stem + "e"
	}
	return stem
}

// singular reduces a regular English plural.
func singular(word string) string {
	if s, ok := irregularNouns[word]; ok {
		return s
	}
	if len(word) <= 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"), strings.HasSuffix(word, "ous"):
		return word
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "zes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"):
		if silentEPlurals[word[:len(word)-1]] {
			return word[:len(word)-1]
		}
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}

func isConsonant(word string, i int) bool {
	switch word[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !isConsonant(word, i-1)
	}
	return true
}

// measure counts vowel-consonant sequences.
func measure(word string) int {
	n := len(word)
	m := 0
	i := 0

	for i < n && isConsonant(word, i) {
		i++
	}

	for i < n {
		for i < n && !isConsonant(word, i) {
			i++
		}
		if i >= n {
			break
		}
		m++
		for i < n && isConsonant(word, i) {
			i++
		}
	}

	return m
}

func hasVowel(word string) bool {
	for i := 0; i < len(word); i++ {
		if !isConsonant(word, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(word string) bool {
	n := len(word)
	if n < 2 {
		return false
	}
	return word[n-1] == word[n-2] && isConsonant(word, n-1)
}

func endsCVC(word string) bool {
	n := len(word)
	if n < 3 {
		return false
	}
	if !isConsonant(word, n-3) || isConsonant(word, n-2) || !isConsonant(word, n-1) {
		return false
	}
	c := word[n-1]
	return c != 'w' && c != 'x' && c != 'y'
}

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}
