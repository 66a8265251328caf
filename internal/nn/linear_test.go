package nn

import (
	"math"
	"testing"

	"github.com/quill-ml/quill/internal/tensor"
)

// TestLinear_Forward tests y = x @ W^T with hand-computed values.
func TestLinear_Forward(t *testing.T) {
	lin := NewLinear(2, 3)
	// W = [[1, 2], [3, 4], [5, 6]] stored as [out=3, in=2]
	copy(lin.Weight.Data(), []float32{1, 2, 3, 4, 5, 6})

	// x = [[1, 1], [2, 0]]
	x := tensor.FromSlice([]float32{1, 1, 2, 0}, tensor.Shape{2, 2})
	y := lin.Forward(x)

	// Row [1, 1]: [1+2, 3+4, 5+6] = [3, 7, 11]
	// Row [2, 0]: [2, 6, 10]
	expected := []float32{3, 7, 11, 2, 6, 10}
	got := y.Data()
	for i, exp := range expected {
		if math.Abs(float64(got[i]-exp)) > 1e-5 {
			t.Errorf("element %d: got %v, expected %v", i, got[i], exp)
		}
	}

	want := tensor.Shape{2, 3}
	if !y.Shape().Equal(want) {
		t.Errorf("expected output shape %v, got %v", want, y.Shape())
	}
}

// TestLinear_MatchesExplicitTranspose tests Forward against multiplying
// by a materialized transpose.
func TestLinear_MatchesExplicitTranspose(t *testing.T) {
	lin := NewLinear(4, 6)
	x := tensor.Randn(tensor.Shape{3, 4})

	got := lin.Forward(x).Data()
	want := x.MatMul(lin.Weight.Transpose()).Data()

	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Errorf("element %d: got %v, expected %v", i, got[i], want[i])
		}
	}
}

// TestLinear_Features tests the dimension accessors.
func TestLinear_Features(t *testing.T) {
	lin := NewLinear(128, 512)
	if lin.InFeatures() != 128 {
		t.Errorf("InFeatures: got %d, expected 128", lin.InFeatures())
	}
	if lin.OutFeatures() != 512 {
		t.Errorf("OutFeatures: got %d, expected 512", lin.OutFeatures())
	}
}

// TestNewLinear_XavierBounds tests that initial weights stay within the
// Xavier limit sqrt(6 / (fan_in + fan_out)).
func TestNewLinear_XavierBounds(t *testing.T) {
	lin := NewLinear(100, 50)
	limit := math.Sqrt(6.0 / 150.0)

	var nonzero bool
	for i, w := range lin.Weight.Data() {
		if math.Abs(float64(w)) > limit {
			t.Errorf("weight %d: |%v| exceeds Xavier limit %v", i, w, limit)
		}
		if w != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Error("all initial weights are zero")
	}
}

// TestLinear_WidthMismatch tests the panic on a wrong input width.
func TestLinear_WidthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for mismatched input width, got none")
		}
	}()
	NewLinear(4, 2).Forward(tensor.Zeros(tensor.Shape{3, 5}))
}

// TestLinear_RankMismatch tests the panic on a non-2D input.
func TestLinear_RankMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for 3D input, got none")
		}
	}()
	NewLinear(4, 2).Forward(tensor.Zeros(tensor.Shape{2, 3, 4}))
}
