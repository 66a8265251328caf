package loader

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/quill-ml/quill/internal/tensor"
)

// LoadTorch reads a PyTorch checkpoint (state dict) and widens every
// tensor to float32. Both the legacy tar format and the zip format are
// handled by gopickle. Nested dicts flatten with dot-joined keys.
func LoadTorch(path string) (map[string]*tensor.Tensor, error) {
	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	tensors := make(map[string]*tensor.Tensor)
	if err := collectTorch(obj, "", tensors); err != nil {
		return nil, err
	}
	if len(tensors) == 0 {
		return nil, fmt.Errorf("%s holds no tensors", path)
	}
	return tensors, nil
}

// collectTorch walks the unpickled object tree, converting every tensor
// it finds. Non-tensor leaves (optimizer state, metadata scalars) are
// skipped.
func collectTorch(obj interface{}, prefix string, out map[string]*tensor.Tensor) error {
	switch v := obj.(type) {
	case *types.OrderedDict:
		for key, entry := range v.Map {
			if err := collectTorch(entry.Value, joinKey(prefix, key), out); err != nil {
				return err
			}
		}
	case *types.Dict:
		for _, entry := range *v {
			if err := collectTorch(entry.Value, joinKey(prefix, entry.Key), out); err != nil {
				return err
			}
		}
	case *pytorch.Tensor:
		t, err := convertTorchTensor(prefix, v)
		if err != nil {
			return err
		}
		out[prefix] = t
	}
	return nil
}

func joinKey(prefix string, key interface{}) string {
	name := fmt.Sprintf("%v", key)
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// convertTorchTensor copies one pickled tensor into a float32 tensor.
// Tensors saved from transposed or sliced views keep their view strides
// in the pickle, so the copy walks the strides and materializes a
// row-major layout.
func convertTorchTensor(name string, pt *pytorch.Tensor) (*tensor.Tensor, error) {
	shape := tensor.Shape(pt.Size)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	src, err := storageFloats(name, pt.Source)
	if err != nil {
		return nil, err
	}

	n := shape.NumElements()
	data := make([]float32, n)
	if contiguous(pt.Size, pt.Stride) {
		if err := checkStorage(name, len(src), pt.StorageOffset, n); err != nil {
			return nil, err
		}
		copy(data, src[pt.StorageOffset:])
		return tensor.FromSlice(data, shape), nil
	}

	if len(pt.Stride) != len(pt.Size) {
		return nil, fmt.Errorf("tensor %s has stride %v for size %v", name, pt.Stride, pt.Size)
	}
	if err := checkStorage(name, len(src), pt.StorageOffset, stridedSpan(pt.Size, pt.Stride)); err != nil {
		return nil, err
	}
	gatherStrided(data, src[pt.StorageOffset:], pt.Size, pt.Stride)
	return tensor.FromSlice(data, shape), nil
}

// storageFloats widens a pickle storage to float32 values.
func storageFloats(name string, source interface{}) ([]float32, error) {
	switch src := source.(type) {
	case *pytorch.FloatStorage:
		return src.Data, nil
	case *pytorch.HalfStorage:
		return src.Data, nil
	case *pytorch.BFloat16Storage:
		return src.Data, nil
	case *pytorch.DoubleStorage:
		out := make([]float32, len(src.Data))
		for i, v := range src.Data {
			out[i] = float32(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tensor %s: unsupported storage type %T", name, source)
	}
}

func checkStorage(name string, stored, offset, want int) error {
	if offset < 0 || stored-offset < want {
		return fmt.Errorf("tensor %s: storage holds %d elements at offset %d, need %d",
			name, stored, offset, want)
	}
	return nil
}

// contiguous reports whether stride describes a dense row-major layout
// for size. An empty stride is treated as contiguous.
func contiguous(size, stride []int) bool {
	if len(stride) == 0 {
		return true
	}
	if len(stride) != len(size) {
		return false
	}
	expect := 1
	for i := len(size) - 1; i >= 0; i-- {
		if size[i] != 1 && stride[i] != expect {
			return false
		}
		expect *= size[i]
	}
	return true
}

// stridedSpan returns how many storage elements a strided view touches,
// counting from its offset.
func stridedSpan(size, stride []int) int {
	span := 1
	for i, s := range size {
		span += (s - 1) * stride[i]
	}
	return span
}

// gatherStrided walks dst in row-major order, advancing a multi-index
// over size and reading src at the strided offset.
func gatherStrided(dst, src []float32, size, stride []int) {
	idx := make([]int, len(size))
	offset := 0
	for i := range dst {
		dst[i] = src[offset]
		for d := len(size) - 1; d >= 0; d-- {
			idx[d]++
			offset += stride[d]
			if idx[d] < size[d] {
				break
			}
			idx[d] = 0
			offset -= size[d] * stride[d]
		}
	}
}
