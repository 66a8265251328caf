package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/quill-ml/quill/internal/parallel"
)

var batchCfg = parallel.Config{Enabled: true, NumWorkers: parallel.DefaultConfig().NumWorkers, MinChunkSize: 1}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The inner product runs through gonum's native single-precision GEMM.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(fmt.Sprintf("MatMul: only 2D tensors supported, got %dD and %dD", len(t.shape), len(other.shape)))
	}
	m, k := t.shape[0], t.shape[1]
	kAlt, n := other.shape[0], other.shape[1]
	if k != kAlt {
		panic(fmt.Sprintf("MatMul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	out := New(Shape{m, n})
	sgemm(blas.NoTrans, m, n, k, t.data, other.data, out.data)
	return out
}

// MatMulT performs (M, K) @ (N, K)ᵀ -> (M, N) without materializing the
// transpose. This is the natural layout for projection weights stored
// as [out_features, in_features].
func (t *Tensor) MatMulT(other *Tensor) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(fmt.Sprintf("MatMulT: only 2D tensors supported, got %dD and %dD", len(t.shape), len(other.shape)))
	}
	m, k := t.shape[0], t.shape[1]
	n, kAlt := other.shape[0], other.shape[1]
	if k != kAlt {
		panic(fmt.Sprintf("MatMulT: shape mismatch [%d,%d] @ [%d,%d]ᵀ", m, k, n, kAlt))
	}

	out := New(Shape{m, n})
	sgemm(blas.Trans, m, n, k, t.data, other.data, out.data)
	return out
}

// BatchMatMul performs batched matrix multiplication over the last two
// dimensions; all leading (batch) dimensions must match.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// Batch entries are independent and run on the worker pool.
func (t *Tensor) BatchMatMul(other *Tensor) *Tensor {
	ndim := len(t.shape)
	if ndim < 3 {
		panic(fmt.Sprintf("BatchMatMul: inputs must be at least 3D, got %dD", ndim))
	}
	if len(other.shape) != ndim {
		panic(fmt.Sprintf("BatchMatMul: rank mismatch, got %dD and %dD", ndim, len(other.shape)))
	}
	for i := 0; i < ndim-2; i++ {
		if t.shape[i] != other.shape[i] {
			panic(fmt.Sprintf("BatchMatMul: batch dimension mismatch at dim %d: %d vs %d", i, t.shape[i], other.shape[i]))
		}
	}

	m := t.shape[ndim-2]
	k := t.shape[ndim-1]
	if other.shape[ndim-2] != k {
		panic(fmt.Sprintf("BatchMatMul: inner dimension mismatch: %d vs %d", k, other.shape[ndim-2]))
	}
	n := other.shape[ndim-1]

	batchSize := 1
	for i := 0; i < ndim-2; i++ {
		batchSize *= t.shape[i]
	}

	outShape := t.shape.Clone()
	outShape[ndim-2] = m
	outShape[ndim-1] = n
	out := New(outShape)

	sizeA, sizeB, sizeC := m*k, k*n, m*n
	parallel.For(batchSize, func(batch int) {
		a := t.data[batch*sizeA : (batch+1)*sizeA]
		b := other.data[batch*sizeB : (batch+1)*sizeB]
		c := out.data[batch*sizeC : (batch+1)*sizeC]
		sgemm(blas.NoTrans, m, n, k, a, b, c)
	}, batchCfg)
	return out
}

// sgemm computes c = a @ b (tB == NoTrans, b stored [K, N]) or
// c = a @ bᵀ (tB == Trans, b stored [N, K]); a is [M, K], c is [M, N].
func sgemm(tB blas.Transpose, m, n, k int, a, b, c []float32) {
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}

	var gb blas32.General
	if tB == blas.Trans {
		gb = blas32.General{Rows: n, Cols: k, Stride: k, Data: b}
	} else {
		gb = blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	}
	blas32.Gemm(blas.NoTrans, tB, 1, ga, gb, 0, gc)
}
