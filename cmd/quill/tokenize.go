package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quill-ml/quill/loader"
	"github.com/quill-ml/quill/tokenizer"
)

func newTokenizeCmd() *cobra.Command {
	tokenizeCmd := &cobra.Command{
		Use:   "tokenize TEXT...",
		Short: "Print BPE token ids, one line per text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  tokenizeHandler,
	}

	tokenizeCmd.Flags().StringP("checkpoint", "c", ".", "Checkpoint directory (vocab.json, merges.txt)")
	tokenizeCmd.Flags().Int("max-length", 0, "Pad or truncate every token sequence to this length (0 = no padding)")

	return tokenizeCmd
}

func tokenizeHandler(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("checkpoint")
	maxLen, _ := cmd.Flags().GetInt("max-length")

	tok, err := tokenizer.Load(
		filepath.Join(dir, loader.VocabFileName),
		filepath.Join(dir, loader.MergesFileName),
	)
	if err != nil {
		return err
	}

	for _, text := range args {
		var ids []int
		if maxLen == 0 {
			ids = tok.Encode(text)
		} else {
			ids, err = tok.EncodePadded(text, maxLen)
			if err != nil {
				return err
			}
		}

		fields := make([]string, len(ids))
		for i, id := range ids {
			fields[i] = strconv.Itoa(id)
		}
		fmt.Println(strings.Join(fields, " "))
	}
	return nil
}
