// Package loader reads text encoder checkpoints from disk.
//
// Two weight formats are supported:
//   - SafeTensors: the Hugging Face standard (model.safetensors)
//   - PyTorch pickle: legacy exports (encoder.pt), read via gopickle
//
// All weights are converted to float32 on load. F16 and BF16 tensors are
// widened element by element; the compute engine itself is float32-only.
//
// Example:
//
//	enc, err := loader.LoadTextEncoder("path/to/checkpoint")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := enc.Encode(tokens)
//
// A checkpoint directory holds config.json with the hyperparameters plus
// one weight file. Weight keys follow the BART encoder naming
// (embed_tokens.weight, layers.0.self_attn.q_proj.weight, ...), with or
// without an "encoder." or "model.encoder." prefix.
package loader
