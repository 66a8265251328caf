package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quill-ml/quill/loader"
	"github.com/quill-ml/quill/tokenizer"
)

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode PROMPT...",
		Short: "Encode text prompts into hidden states",
		Long:  "Encode tokenizes each PROMPT argument and runs all of them through the text encoder as one batch.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  encodeHandler,
	}

	encodeCmd.Flags().StringP("checkpoint", "c", ".", "Checkpoint directory (config.json, weights, vocab.json, merges.txt)")
	encodeCmd.Flags().Int("max-length", 64, "Pad or truncate every token sequence to this length (0 = pad to the longest prompt)")
	encodeCmd.Flags().StringP("output", "o", "", "Write tokens and hidden states to this JSON file")

	return encodeCmd
}

// encodeResult is the JSON document written by encode --output.
type encodeResult struct {
	Prompts []string      `json:"prompts"`
	Tokens  [][]int       `json:"tokens"`
	Shape   []int         `json:"shape"`
	Hidden  [][][]float32 `json:"hidden"`
}

func encodeHandler(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dir, _ := cmd.Flags().GetString("checkpoint")
	maxLen, _ := cmd.Flags().GetInt("max-length")
	outPath, _ := cmd.Flags().GetString("output")

	if maxLen < 0 {
		return fmt.Errorf("--max-length must be >= 0, got %d", maxLen)
	}

	tok, err := tokenizer.Load(
		filepath.Join(dir, loader.VocabFileName),
		filepath.Join(dir, loader.MergesFileName),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	encoder, err := loader.LoadTextEncoder(dir)
	if err != nil {
		return err
	}
	cfg := encoder.Config()
	log.Info("loaded checkpoint",
		zap.String("dir", dir),
		zap.Int("layer_count", cfg.LayerCount),
		zap.Int("embed_dim", cfg.EmbedDim),
		zap.Duration("elapsed", time.Since(start)),
	)

	if maxLen > cfg.MaxPositionCount {
		return fmt.Errorf("--max-length %d exceeds the model's %d positions", maxLen, cfg.MaxPositionCount)
	}

	tokens, err := tokenizeBatch(tok, args, maxLen)
	if err != nil {
		return err
	}
	if seqLen := len(tokens[0]); seqLen > cfg.MaxPositionCount {
		return fmt.Errorf("prompts need %d tokens but the model takes at most %d (use --max-length to truncate)",
			seqLen, cfg.MaxPositionCount)
	}

	start = time.Now()
	hidden := encoder.Encode(tokens)
	shape := hidden.Shape()
	log.Info("encoded batch",
		zap.Int("batch", shape[0]),
		zap.Int("seq_len", shape[1]),
		zap.Duration("elapsed", time.Since(start)),
	)

	if outPath != "" {
		return writeEncodeResult(outPath, args, tokens, shape, hidden.Data())
	}

	seq, dim := shape[1], shape[2]
	fmt.Printf("shape: %v\n", shape)
	for b, prompt := range args {
		fmt.Printf("[%d] %q\n", b, prompt)
		fmt.Printf("    tokens: %v\n", tokens[b])
		fmt.Printf("    hidden[%d][0][:8] =%s\n", b, previewValues(hidden.Data()[b*seq*dim:], 8))
	}
	return nil
}

// tokenizeBatch encodes every prompt and pads the rows to one length:
// maxLen when given, otherwise the longest row.
func tokenizeBatch(tok *tokenizer.Tokenizer, prompts []string, maxLen int) ([][]int, error) {
	tokens := make([][]int, len(prompts))

	if maxLen > 0 {
		for i, p := range prompts {
			ids, err := tok.EncodePadded(p, maxLen)
			if err != nil {
				return nil, err
			}
			tokens[i] = ids
		}
		return tokens, nil
	}

	longest := 0
	for i, p := range prompts {
		tokens[i] = tok.Encode(p)
		if len(tokens[i]) > longest {
			longest = len(tokens[i])
		}
	}
	for i, ids := range tokens {
		for len(ids) < longest {
			ids = append(ids, tok.PadToken())
		}
		tokens[i] = ids
	}
	return tokens, nil
}

func writeEncodeResult(path string, prompts []string, tokens [][]int, shape []int, data []float32) error {
	batch, seq, dim := shape[0], shape[1], shape[2]
	hidden := make([][][]float32, batch)
	for b := range hidden {
		rows := make([][]float32, seq)
		for i := range rows {
			start := (b*seq + i) * dim
			rows[i] = data[start : start+dim]
		}
		hidden[b] = rows
	}

	payload, err := json.Marshal(encodeResult{
		Prompts: prompts,
		Tokens:  tokens,
		Shape:   shape,
		Hidden:  hidden,
	})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil { //nolint:gosec // G306: CLI output file, normal permissions.
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func previewValues(data []float32, n int) string {
	if n > len(data) {
		n = len(data)
	}
	var b strings.Builder
	for _, v := range data[:n] {
		fmt.Fprintf(&b, " %+.4f", v)
	}
	return b.String()
}
