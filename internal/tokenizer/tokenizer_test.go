package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() map[string]int {
	return map[string]int{
		"<s>":   0,
		"<pad>": 1,
		"</s>":  2,
		"<unk>": 3,
		"Ġcat":  4,
		"Ġa":    5,
		"Ġ":     6,
		"a":     7,
		"c":     8,
		"t":     9,
		"ca":    10,
		"cat":   11,
		"f":     12,
	}
}

func testMerges() [][2]string {
	return [][2]string{
		{"c", "a"},
		{"ca", "t"},
		{"Ġ", "cat"},
		{"Ġ", "a"},
		{"a", "a"},
	}
}

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New(testVocab(), testMerges())
	require.NoError(t, err)
	return tok
}

// TestEncode_MergeChain tests that merges apply in rank order until a
// word collapses to a single vocabulary entry.
func TestEncode_MergeChain(t *testing.T) {
	tok := newTestTokenizer(t)

	// "cat": Ġ|c|a|t -> Ġ|ca|t -> Ġ|cat -> Ġcat
	got := tok.Encode("a cat")
	assert.Equal(t, []int{0, 5, 4, 2}, got)
}

// TestEncode_RankPriority tests that the lowest-ranked pair merges first:
// for "aa" the rule (Ġ, a) outranks (a, a).
func TestEncode_RankPriority(t *testing.T) {
	tok := newTestTokenizer(t)

	// Ġ|a|a -> Ġa|a, and no rule joins those two.
	got := tok.Encode("aa")
	assert.Equal(t, []int{0, 5, 7, 2}, got)
}

// TestEncode_UnknownPiece tests the <unk> fallback for pieces outside
// the vocabulary.
func TestEncode_UnknownPiece(t *testing.T) {
	tok := newTestTokenizer(t)

	// "caz": Ġ|ca|z and "z" is not in the vocabulary.
	got := tok.Encode("caz")
	assert.Equal(t, []int{0, 6, 10, 3, 2}, got)
}

// TestEncode_Normalization tests lowercasing and whitespace handling.
func TestEncode_Normalization(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, tok.Encode("a cat"), tok.Encode("  A \t CAT \n"))
}

// TestEncode_NonASCII tests that non-ASCII runes are dropped before
// encoding, matching the vocabulary's ASCII-only coverage.
func TestEncode_NonASCII(t *testing.T) {
	tok := newTestTokenizer(t)

	// "cät" folds to "ct": Ġ|c|t with no applicable merges.
	assert.Equal(t, []int{0, 6, 8, 9, 2}, tok.Encode("cät"))

	// A fully non-ASCII word vanishes entirely.
	assert.Equal(t, []int{0, 2}, tok.Encode("日本語"))
}

// TestEncode_Empty tests that empty and blank input produce only the
// sequence markers.
func TestEncode_Empty(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, []int{0, 2}, tok.Encode(""))
	assert.Equal(t, []int{0, 2}, tok.Encode("   "))
}

// TestEncodePadded tests padding and truncation to a fixed length.
func TestEncodePadded(t *testing.T) {
	tok := newTestTokenizer(t)

	padded, err := tok.EncodePadded("a cat", 8)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 4, 2, 1, 1, 1, 1}, padded)

	truncated, err := tok.EncodePadded("a cat", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 4}, truncated)

	exact, err := tok.EncodePadded("a cat", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 4, 2}, exact)
}

// TestEncodePadded_BadLength tests the minimum length check.
func TestEncodePadded_BadLength(t *testing.T) {
	tok := newTestTokenizer(t)

	_, err := tok.EncodePadded("a cat", 1)
	assert.Error(t, err)
}

// TestNew_MissingSpecial tests that construction fails without the four
// special tokens.
func TestNew_MissingSpecial(t *testing.T) {
	vocab := testVocab()
	delete(vocab, "<unk>")

	_, err := New(vocab, testMerges())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<unk>")
}

// TestSpecialTokens tests the id accessors.
func TestSpecialTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, 0, tok.BosToken())
	assert.Equal(t, 2, tok.EosToken())
	assert.Equal(t, 1, tok.PadToken())
	assert.Equal(t, 3, tok.UnkToken())
	assert.Equal(t, len(testVocab()), tok.VocabSize())
}

func BenchmarkEncode(b *testing.B) {
	tok, err := New(testVocab(), testMerges())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok.Encode("a cat a cat a cat sat on a mat")
	}
}
