package semantic

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"scaled", []float32{1, 1, 0}, []float32{5, 5, 0}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(float64(got-tc.want)) > 1e-6 {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIndexDimensionLock(t *testing.T) {
	var x similarityIndex

	if err := x.insert(1, []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := x.insert(2, []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if err := x.insert(3, nil); err == nil {
		t.Error("expected error for empty embedding")
	}
	if x.len() != 1 {
		t.Errorf("expected 1 item, got %d", x.len())
	}
}

func TestIndexNearest(t *testing.T) {
	var x similarityIndex
	_ = x.insert(1, []float32{1, 0, 0})
	_ = x.insert(2, []float32{0, 1, 0})

	id, score, ok := x.nearest([]float32{0.9, 0.1, 0}, 0.9)
	if !ok {
		t.Fatal("expected a match")
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}
	if score < 0.9 {
		t.Errorf("score %v below threshold", score)
	}

	// Nothing above an impossible threshold.
	if _, _, ok := x.nearest([]float32{0.5, 0.5, 0}, 0.99); ok {
		t.Error("expected no match above threshold")
	}

	// Wrong dimensionality never matches.
	if _, _, ok := x.nearest([]float32{1, 0}, 0.1); ok {
		t.Error("expected no match for mismatched dims")
	}
}

func TestIndexRemove(t *testing.T) {
	var x similarityIndex
	_ = x.insert(1, []float32{1, 0})
	_ = x.insert(2, []float32{0, 1})

	if !x.remove(1) {
		t.Error("expected remove to succeed")
	}
	if x.remove(1) {
		t.Error("expected second remove to fail")
	}
	if x.contains(1) {
		t.Error("expected id 1 gone")
	}
	if !x.contains(2) {
		t.Error("expected id 2 present")
	}
}
