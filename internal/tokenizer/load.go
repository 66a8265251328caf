package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Load reads a tokenizer from a vocab.json file (token name to id) and a
// merges.txt file (one merge rule per line, ordered by priority). The
// first line of merges.txt is a version header and is skipped.
func Load(vocabPath, mergesPath string) (*Tokenizer, error) {
	vocabData, err := os.ReadFile(vocabPath) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab file: %w", err)
	}
	var vocab map[string]int
	if err := json.Unmarshal(vocabData, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", vocabPath, err)
	}

	mergesData, err := os.ReadFile(mergesPath) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read merges file: %w", err)
	}
	merges, err := parseMerges(string(mergesData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", mergesPath, err)
	}

	return New(vocab, merges)
}

func parseMerges(text string) ([][2]string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // version header
	}

	merges := make([][2]string, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed merge rule on line %d: %q", i+2, line)
		}
		merges = append(merges, [2]string{parts[0], parts[1]})
	}
	return merges, nil
}
