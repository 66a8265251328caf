package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quill-ml/quill/internal/nn"
	"github.com/quill-ml/quill/internal/tensor"
)

// Files that make up a checkpoint directory.
const (
	ConfigFileName      = "config.json"
	SafetensorsFileName = "model.safetensors"
	TorchFileName       = "encoder.pt"
	VocabFileName       = "vocab.json"
	MergesFileName      = "merges.txt"
)

// keyPrefixes are tried in order when resolving weight names. Exports of
// the full seq2seq model nest the encoder weights under a prefix.
var keyPrefixes = []string{"", "encoder.", "model.encoder."}

// LoadConfig reads and validates config.json from a checkpoint directory.
func LoadConfig(dir string) (nn.Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nn.Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg nn.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nn.Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nn.Config{}, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadWeights reads the weight file of a checkpoint directory:
// model.safetensors when present, otherwise encoder.pt.
func LoadWeights(dir string) (map[string]*tensor.Tensor, error) {
	stPath := filepath.Join(dir, SafetensorsFileName)
	if _, err := os.Stat(stPath); err == nil {
		reader, err := NewSafeTensorsReader(stPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", SafetensorsFileName, err)
		}
		defer func() { _ = reader.Close() }()

		tensors, err := reader.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", SafetensorsFileName, err)
		}
		return tensors, nil
	}

	ptPath := filepath.Join(dir, TorchFileName)
	if _, err := os.Stat(ptPath); err == nil {
		return LoadTorch(ptPath)
	}

	return nil, fmt.Errorf("no weight file in %s (want %s or %s)",
		dir, SafetensorsFileName, TorchFileName)
}

// LoadTextEncoder builds a text encoder from a checkpoint directory:
// hyperparameters from config.json, weights from the weight file.
// Checkpoint tensors the encoder does not use are ignored.
func LoadTextEncoder(dir string) (*nn.TextEncoder, error) {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	weights, err := LoadWeights(dir)
	if err != nil {
		return nil, err
	}

	enc := nn.NewTextEncoder(cfg)
	if err := fillEncoder(enc, weights); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", dir, err)
	}
	return enc, nil
}

// weightSet resolves BART encoder weight names against a loaded tensor
// map, under the detected key prefix.
type weightSet struct {
	tensors map[string]*tensor.Tensor
	prefix  string
}

func newWeightSet(tensors map[string]*tensor.Tensor) (*weightSet, error) {
	for _, p := range keyPrefixes {
		if _, ok := tensors[p+"embed_tokens.weight"]; ok {
			return &weightSet{tensors: tensors, prefix: p}, nil
		}
	}
	return nil, fmt.Errorf("no embed_tokens.weight under any known prefix %q", keyPrefixes)
}

// fill copies the named checkpoint tensor into dst. A [out, in, 1, 1]
// kernel fills a [out, in] projection; some exports store the bias-free
// linears conv-style.
func (w *weightSet) fill(key string, dst *tensor.Tensor) error {
	src, ok := w.tensors[w.prefix+key]
	if !ok {
		return fmt.Errorf("missing weight %s", w.prefix+key)
	}
	if !src.Shape().Equal(dst.Shape()) && !squeezesTo(src.Shape(), dst.Shape()) {
		return fmt.Errorf("weight %s: checkpoint shape %v does not fit %v",
			w.prefix+key, src.Shape(), dst.Shape())
	}
	copy(dst.Data(), src.Data())
	return nil
}

func squeezesTo(src, dst tensor.Shape) bool {
	return len(src) == 4 && len(dst) == 2 &&
		src[0] == dst[0] && src[1] == dst[1] && src[2] == 1 && src[3] == 1
}

func (w *weightSet) fillNorm(key string, ln *nn.LayerNorm) error {
	if err := w.fill(key+".weight", ln.Gamma); err != nil {
		return err
	}
	return w.fill(key+".bias", ln.Beta)
}

func fillEncoder(enc *nn.TextEncoder, tensors map[string]*tensor.Tensor) error {
	w, err := newWeightSet(tensors)
	if err != nil {
		return err
	}

	if err := w.fill("embed_tokens.weight", enc.TokenEmbed.Weight); err != nil {
		return err
	}
	if err := w.fill("embed_positions.weight", enc.PosEmbed.Weight); err != nil {
		return err
	}
	if err := w.fillNorm("layernorm_embedding", enc.EmbedNorm); err != nil {
		return err
	}
	if err := w.fillNorm("final_ln", enc.FinalNorm); err != nil {
		return err
	}

	for i, layer := range enc.Layers {
		if err := w.fillLayer(fmt.Sprintf("layers.%d", i), layer); err != nil {
			return err
		}
	}
	return nil
}

func (w *weightSet) fillLayer(prefix string, layer *nn.EncoderLayer) error {
	if err := w.fillNorm(prefix+".pre_self_attn_layer_norm", layer.PreAttnNorm); err != nil {
		return err
	}

	attn := layer.SelfAttn
	projections := []struct {
		key string
		dst *tensor.Tensor
	}{
		{".self_attn.q_proj.weight", attn.QProj.Weight},
		{".self_attn.k_proj.weight", attn.KProj.Weight},
		{".self_attn.v_proj.weight", attn.VProj.Weight},
		{".self_attn.out_proj.weight", attn.OutProj.Weight},
	}
	for _, p := range projections {
		if err := w.fill(prefix+p.key, p.dst); err != nil {
			return err
		}
	}

	if err := w.fillNorm(prefix+".self_attn_layer_norm", layer.PostAttnNorm); err != nil {
		return err
	}

	ffn := layer.FeedForward
	if err := w.fillNorm(prefix+".glu.ln0", ffn.InputNorm); err != nil {
		return err
	}
	if err := w.fillNorm(prefix+".glu.ln1", ffn.HiddenNorm); err != nil {
		return err
	}
	if err := w.fill(prefix+".glu.fc0.weight", ffn.GateProj.Weight); err != nil {
		return err
	}
	if err := w.fill(prefix+".glu.fc1.weight", ffn.ValueProj.Weight); err != nil {
		return err
	}
	return w.fill(prefix+".glu.fc2.weight", ffn.OutProj.Weight)
}
