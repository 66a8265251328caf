package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/quill-ml/quill/loader"
)

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show checkpoint configuration and weights",
		Args:  cobra.NoArgs,
		RunE:  inspectHandler,
	}

	inspectCmd.Flags().StringP("checkpoint", "c", ".", "Checkpoint directory to inspect")

	return inspectCmd
}

func inspectHandler(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("checkpoint")

	cfg, err := loader.LoadConfig(dir)
	if err != nil {
		return err
	}

	fmt.Println("config:")
	fmt.Printf("  %-20s %d\n", "layer_count:", cfg.LayerCount)
	fmt.Printf("  %-20s %d\n", "embed_dim:", cfg.EmbedDim)
	fmt.Printf("  %-20s %d\n", "head_count:", cfg.HeadCount)
	fmt.Printf("  %-20s %d\n", "vocab_size:", cfg.VocabSize)
	fmt.Printf("  %-20s %d\n", "max_position_count:", cfg.MaxPositionCount)
	fmt.Printf("  %-20s %d\n", "glu_embed_dim:", cfg.GLUDim)
	fmt.Println()

	rows, total, err := weightRows(dir)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"TENSOR", "DTYPE", "SHAPE", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()

	fmt.Printf("\n%d tensors, %s parameters\n", len(rows), humanNumber(total))
	return nil
}

// weightRows lists the checkpoint's tensors, preferring the safetensors
// file (which still knows the on-disk dtypes) over the pickle fallback.
func weightRows(dir string) ([][]string, int64, error) {
	stPath := filepath.Join(dir, loader.SafetensorsFileName)
	if _, err := os.Stat(stPath); err == nil {
		return safetensorsRows(stPath)
	}

	ptPath := filepath.Join(dir, loader.TorchFileName)
	if _, err := os.Stat(ptPath); err == nil {
		return torchRows(ptPath)
	}

	return nil, 0, fmt.Errorf("no weight file in %s (want %s or %s)",
		dir, loader.SafetensorsFileName, loader.TorchFileName)
}

func safetensorsRows(path string) ([][]string, int64, error) {
	reader, err := loader.NewSafeTensorsReader(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = reader.Close() }()

	if metadata := reader.Metadata(); len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("metadata:")
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, metadata[k])
		}
		fmt.Println()
	}

	names := reader.TensorNames()
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	var total int64
	for _, name := range names {
		info, err := reader.TensorInfo(name)
		if err != nil {
			return nil, 0, err
		}

		count := int64(1)
		for _, dim := range info.Shape {
			count *= int64(dim)
		}
		total += count

		rows = append(rows, []string{name, string(info.DType), fmt.Sprint(info.Shape), humanNumber(count)})
	}
	return rows, total, nil
}

func torchRows(path string) ([][]string, int64, error) {
	tensors, err := loader.LoadTorch(path)
	if err != nil {
		return nil, 0, err
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	var total int64
	for _, name := range names {
		t := tensors[name]
		count := int64(t.NumElements())
		total += count

		// The pickle loader widens everything to float32, so the
		// on-disk dtype is no longer known here.
		rows = append(rows, []string{name, "-", fmt.Sprint(t.Shape()), humanNumber(count)})
	}
	return rows, total, nil
}

func humanNumber(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return strconv.FormatInt(n, 10)
}
