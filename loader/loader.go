// Package loader provides the public API for reading text encoder
// checkpoints.
//
// Example:
//
//	enc, err := loader.LoadTextEncoder("path/to/checkpoint")
//	if err != nil {
//		log.Fatal(err)
//	}
//	out := enc.Encode(tokens)
package loader

import (
	"github.com/quill-ml/quill/internal/loader"
	"github.com/quill-ml/quill/internal/nn"
	"github.com/quill-ml/quill/internal/tensor"
)

// Files that make up a checkpoint directory.
const (
	ConfigFileName      = loader.ConfigFileName
	SafetensorsFileName = loader.SafetensorsFileName
	TorchFileName       = loader.TorchFileName
	VocabFileName       = loader.VocabFileName
	MergesFileName      = loader.MergesFileName
)

// SafeTensorsReader reads tensors from a SafeTensors file.
type SafeTensorsReader = loader.SafeTensorsReader

// NewSafeTensorsReader opens a SafeTensors file and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	return loader.NewSafeTensorsReader(path)
}

// LoadTextEncoder builds a text encoder from a checkpoint directory.
func LoadTextEncoder(dir string) (*nn.TextEncoder, error) {
	return loader.LoadTextEncoder(dir)
}

// LoadConfig reads and validates config.json from a checkpoint directory.
func LoadConfig(dir string) (nn.Config, error) {
	return loader.LoadConfig(dir)
}

// LoadWeights reads the checkpoint weight file as named float32 tensors.
func LoadWeights(dir string) (map[string]*tensor.Tensor, error) {
	return loader.LoadWeights(dir)
}

// LoadTorch reads a PyTorch state dict, widening tensors to float32.
func LoadTorch(path string) (map[string]*tensor.Tensor, error) {
	return loader.LoadTorch(path)
}
