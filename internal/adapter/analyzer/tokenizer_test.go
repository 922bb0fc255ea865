package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(pieces []piece) []string {
	var out []string
	for _, p := range pieces {
		if p.Kind == pieceWord || p.Kind == pieceNumber {
			out = append(out, p.Text)
		}
	}
	return out
}

func TestTokenizer_Split_Words(t *testing.T) {
	pieces := NewTokenizer().Split("Hello world, again")
	assert.Equal(t, []string{"Hello", "world", "again"}, words(pieces))
}

func TestTokenizer_Split_KeepsGaps(t *testing.T) {
	text := "Hello, world!  Bye"
	pieces := NewTokenizer().Split(text)

	var rebuilt string
	for _, p := range pieces {
		rebuilt += p.Text
	}
	assert.Equal(t, text, rebuilt)

	var punct []string
	for _, p := range pieces {
		if p.Kind == piecePunct {
			punct = append(punct, p.Text)
		}
	}
	assert.Equal(t, []string{",", "!"}, punct)
}

func TestTokenizer_Split_Sentences(t *testing.T) {
	pieces := NewTokenizer().Split("One two. Three four\nFive")

	sentences := map[string]int{}
	starts := map[string]bool{}
	for _, p := range pieces {
		if p.Kind == pieceWord {
			sentences[p.Text] = p.Sentence
			starts[p.Text] = p.SentenceStart
		}
	}

	assert.Equal(t, 0, sentences["One"])
	assert.Equal(t, 0, sentences["two"])
	assert.Equal(t, 1, sentences["Three"])
	assert.Equal(t, 1, sentences["four"])
	assert.Equal(t, 2, sentences["Five"])

	assert.True(t, starts["One"])
	assert.False(t, starts["two"])
	assert.True(t, starts["Three"])
	assert.True(t, starts["Five"])
}

func TestTokenizer_Split_BlankLinesAreOneBoundary(t *testing.T) {
	pieces := NewTokenizer().Split("First.\n\n\nSecond")
	last := pieces[len(pieces)-1]
	require.Equal(t, "Second", last.Text)
	assert.Equal(t, 1, last.Sentence)
}

func TestTokenizer_Split_Numbers(t *testing.T) {
	pieces := NewTokenizer().Split("port 8080")
	require.Len(t, words(pieces), 2)
	for _, p := range pieces {
		if p.Text == "8080" {
			assert.Equal(t, pieceNumber, p.Kind)
		}
	}
}

func TestTokenizer_Split_Empty(t *testing.T) {
	assert.Empty(t, NewTokenizer().Split(""))
}

func TestWordShapes(t *testing.T) {
	assert.True(t, isAcronym("API"))
	assert.True(t, isAcronym("K8S"))
	assert.False(t, isAcronym("A"))
	assert.False(t, isAcronym("Api"))
	assert.False(t, isAcronym("42"))

	assert.True(t, hasInnerUpper("GitHub"))
	assert.True(t, hasInnerUpper("iPhone"))
	assert.False(t, hasInnerUpper("Docker"))

	assert.True(t, startsUpper("Über"))
	assert.False(t, startsUpper("über"))
}
