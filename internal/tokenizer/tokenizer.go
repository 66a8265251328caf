// Package tokenizer implements the byte-pair encoding used by the text
// encoder's vocabulary.
//
// Text is lowercased, stripped to ASCII, and split on whitespace. Each
// word is marked with the word-start prefix and merged greedily by rank
// until no merge rule applies. Unknown pieces fall back to the <unk>
// token, so Encode never fails on any input string.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// wordStart marks the beginning of a word. BPE vocabularies store
// word-initial subwords with this prefix (U+0120, space shifted by 256).
const wordStart = "Ġ"

// Names of the special tokens every vocabulary must define.
const (
	bosToken = "<s>"
	padToken = "<pad>"
	eosToken = "</s>"
	unkToken = "<unk>"
)

type mergePair struct {
	first  string
	second string
}

// Tokenizer encodes text into vocabulary ids. Instances are immutable
// after construction and safe for concurrent use.
type Tokenizer struct {
	vocab map[string]int
	rank  map[mergePair]int

	bos int
	eos int
	pad int
	unk int
}

// New builds a tokenizer from a vocabulary and an ordered list of merge
// rules. Earlier rules merge first. The vocabulary must define the four
// special tokens <s>, <pad>, </s> and <unk>.
func New(vocab map[string]int, merges [][2]string) (*Tokenizer, error) {
	rank := make(map[mergePair]int, len(merges))
	for i, m := range merges {
		p := mergePair{m[0], m[1]}
		if _, ok := rank[p]; !ok {
			rank[p] = i
		}
	}

	t := &Tokenizer{vocab: vocab, rank: rank}
	for _, s := range []struct {
		name string
		dst  *int
	}{
		{bosToken, &t.bos},
		{eosToken, &t.eos},
		{padToken, &t.pad},
		{unkToken, &t.unk},
	} {
		id, ok := vocab[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab is missing special token %q", s.name)
		}
		*s.dst = id
	}
	return t, nil
}

// Encode converts text to token ids, wrapped in <s> and </s>.
func (t *Tokenizer) Encode(text string) []int {
	text = asciiFold(strings.ToLower(text))

	ids := []int{t.bos}
	for _, word := range strings.Fields(text) {
		for _, piece := range t.wordPieces(word) {
			if id, ok := t.vocab[piece]; ok {
				ids = append(ids, id)
			} else {
				ids = append(ids, t.unk)
			}
		}
	}
	return append(ids, t.eos)
}

// EncodePadded encodes text to exactly maxLen ids, truncating or padding
// with <pad> as needed. Truncation keeps the first maxLen ids, so a hard
// cut can drop the closing </s>.
func (t *Tokenizer) EncodePadded(text string, maxLen int) ([]int, error) {
	if maxLen < 2 {
		return nil, fmt.Errorf("maxLen must be >= 2, got %d", maxLen)
	}
	ids := t.Encode(text)
	if len(ids) > maxLen {
		return ids[:maxLen], nil
	}
	for len(ids) < maxLen {
		ids = append(ids, t.pad)
	}
	return ids, nil
}

// wordPieces splits one word into subwords: prefix the word-start marker,
// then repeatedly merge the leftmost pair with the lowest rank.
func (t *Tokenizer) wordPieces(word string) []string {
	subwords := make([]string, 0, utf8.RuneCountInString(word)+1)
	subwords = append(subwords, wordStart)
	for _, r := range word {
		subwords = append(subwords, string(r))
	}

	for len(subwords) > 1 {
		bestIdx := -1
		bestRank := 0
		for i := 0; i+1 < len(subwords); i++ {
			if rank, ok := t.rank[mergePair{subwords[i], subwords[i+1]}]; ok && (bestIdx < 0 || rank < bestRank) {
				bestIdx = i
				bestRank = rank
			}
		}
		if bestIdx < 0 {
			break
		}

		merged := make([]string, 0, len(subwords)-1)
		merged = append(merged, subwords[:bestIdx]...)
		merged = append(merged, subwords[bestIdx]+subwords[bestIdx+1])
		merged = append(merged, subwords[bestIdx+2:]...)
		subwords = merged
	}
	return subwords
}

// asciiFold drops every rune outside the ASCII range.
func asciiFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

// BosToken returns the beginning-of-sequence token id.
func (t *Tokenizer) BosToken() int {
	return t.bos
}

// EosToken returns the end-of-sequence token id.
func (t *Tokenizer) EosToken() int {
	return t.eos
}

// PadToken returns the padding token id.
func (t *Tokenizer) PadToken() int {
	return t.pad
}

// UnkToken returns the unknown token id.
func (t *Tokenizer) UnkToken() int {
	return t.unk
}
