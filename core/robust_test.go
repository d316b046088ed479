package core

import "testing"

// Median follows the even/odd midpoint rule and leaves its input unsorted.
func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{"odd", []float64{3, 1, 2}, 2, true},
		{"even", []float64{4, 1, 3, 2}, 2.5, true},
		{"single", []float64{7}, 7, true},
		{"empty", nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := Median(tc.values)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: Median = (%v, %v), want (%v, %v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}

	values := []float64{9, 1, 5}
	Median(values)
	if values[0] != 9 || values[1] != 1 || values[2] != 5 {
		t.Fatalf("Median modified its input: %v", values)
	}
}

// MAD is the median absolute deviation about the supplied median.
func TestMAD(t *testing.T) {
	got, ok := MAD([]float64{1, 2, 3, 4, 5}, 3)
	if !ok || got != 1 {
		t.Fatalf("MAD = (%v, %v), want (1, true)", got, ok)
	}
	if _, ok := MAD(nil, 0); ok {
		t.Fatal("MAD(nil) reported ok")
	}
}

// RobustZ scales deviations by the consistency factor and refuses to score
// when the MAD carries no spread information.
func TestRobustZ(t *testing.T) {
	got, ok := RobustZ(5, 3, 1)
	if !ok || !almostEqual(got, 1.348981, 1e-5) {
		t.Fatalf("RobustZ(5,3,1) = (%v, %v), want (1.348981, true)", got, ok)
	}
	got, ok = RobustZ(1, 3, 1)
	if !ok || !almostEqual(got, -1.348981, 1e-5) {
		t.Fatalf("RobustZ(1,3,1) = (%v, %v), want (-1.348981, true)", got, ok)
	}
	if _, ok := RobustZ(5, 3, 0); ok {
		t.Fatal("RobustZ with zero MAD reported ok")
	}
}
