// Package tokenizer provides the public API for the byte-pair encoder
// that turns prompts into token ids.
//
// Example:
//
//	tok, err := tokenizer.Load("ckpt/vocab.json", "ckpt/merges.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ids := tok.Encode("a painting of a fox")
package tokenizer

import (
	"github.com/quill-ml/quill/internal/tokenizer"
)

// Tokenizer encodes text into vocabulary ids.
type Tokenizer = tokenizer.Tokenizer

// New builds a tokenizer from a vocabulary and ordered merge rules.
func New(vocab map[string]int, merges [][2]string) (*Tokenizer, error) {
	return tokenizer.New(vocab, merges)
}

// Load reads a tokenizer from vocab.json and merges.txt files.
func Load(vocabPath, mergesPath string) (*Tokenizer, error) {
	return tokenizer.Load(vocabPath, mergesPath)
}
