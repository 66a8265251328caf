package nn

import (
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
)

// TestEmbedding_Forward tests row lookup against a hand-set table.
func TestEmbedding_Forward(t *testing.T) {
	emb := NewEmbedding(4, 2)
	// Table rows: id 0 -> [0, 1], id 1 -> [10, 11], id 2 -> [20, 21], id 3 -> [30, 31]
	copy(emb.Weight.Data(), []float32{0, 1, 10, 11, 20, 21, 30, 31})

	out := emb.Forward([][]int{{2, 0}, {3, 3}})

	want := tensor.Shape{2, 2, 2}
	if !out.Shape().Equal(want) {
		t.Fatalf("expected output shape %v, got %v", want, out.Shape())
	}

	expected := []float32{20, 21, 0, 1, 30, 31, 30, 31}
	got := out.Data()
	for i, exp := range expected {
		if got[i] != exp {
			t.Errorf("element %d: got %v, expected %v", i, got[i], exp)
		}
	}
}

// TestEmbedding_CopiesRows tests that output rows are copies, not views
// into the table.
func TestEmbedding_CopiesRows(t *testing.T) {
	emb := NewEmbedding(2, 2)
	copy(emb.Weight.Data(), []float32{1, 2, 3, 4})

	out := emb.Forward([][]int{{0}})
	out.Data()[0] = 99

	if emb.Weight.Data()[0] != 1 {
		t.Errorf("writing to the output mutated the table: got %v", emb.Weight.Data()[0])
	}
}

// TestEmbedding_Accessors tests NumEmbeddings and EmbedDim.
func TestEmbedding_Accessors(t *testing.T) {
	emb := NewEmbedding(100, 16)
	if emb.NumEmbeddings() != 100 {
		t.Errorf("NumEmbeddings: got %d, expected 100", emb.NumEmbeddings())
	}
	if emb.EmbedDim() != 16 {
		t.Errorf("EmbedDim: got %d, expected 16", emb.EmbedDim())
	}
}

// TestEmbedding_IDOutOfRange tests the panic on an id past the table end.
func TestEmbedding_IDOutOfRange(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for out-of-range id, got none")
		}
	}()
	NewEmbedding(4, 2).Forward([][]int{{4}})
}

// TestEmbedding_NegativeID tests the panic on a negative id.
func TestEmbedding_NegativeID(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for negative id, got none")
		}
	}()
	NewEmbedding(4, 2).Forward([][]int{{-1}})
}

// TestEmbedding_RaggedBatch tests the panic on rows of unequal length.
func TestEmbedding_RaggedBatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for ragged batch, got none")
		}
	}()
	NewEmbedding(4, 2).Forward([][]int{{0, 1}, {0}})
}

// TestEmbedding_EmptyBatch tests the panic on an empty batch.
func TestEmbedding_EmptyBatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for empty batch, got none")
		}
	}()
	NewEmbedding(4, 2).Forward(nil)
}
