package dvid

import (
	"bytes"
	"testing"
)

func TestPoint3d(t *testing.T) {
	a := Point3d{10, 21, 837821}
	b := Point3d{78312, -200, 40123}

	if result := a.Add(b); result != (Point3d{a[0] + b[0], a[1] + b[1], a[2] + b[2]}) {
		t.Errorf("Bad Add: got %s\n", result)
	}
	if result := a.Sub(b); result != (Point3d{a[0] - b[0], a[1] - b[1], a[2] - b[2]}) {
		t.Errorf("Bad Sub: got %s\n", result)
	}
	if s := a.String(); s != "(10,21,837821)" {
		t.Errorf("Bad String: got %s\n", s)
	}

	min := a
	min.SetMinimum(b)
	if min != (Point3d{10, -200, 40123}) {
		t.Errorf("Bad SetMinimum: got %s\n", min)
	}
	max := a
	max.SetMaximum(b)
	if max != (Point3d{78312, 21, 837821}) {
		t.Errorf("Bad SetMaximum: got %s\n", max)
	}

	size := Point3d{2, 3, 4}
	if size.Prod() != 24 {
		t.Errorf("Bad Prod: got %d\n", size.Prod())
	}
	if (Point3d{1, 2, 3}).SquaredMagnitude() != 14 {
		t.Errorf("Bad squared magnitude\n")
	}
	if !size.Positive() || (Point3d{0, 1, 1}).Positive() {
		t.Errorf("Bad Positive check\n")
	}
	if (Point3d{0, -1, 1}).NonNegative() {
		t.Errorf("Bad NonNegative check\n")
	}
}

func TestPoint3dZYXBytes(t *testing.T) {
	pts := []Point3d{
		{0, 0, 0},
		{5, 0, 0},
		{0, 5, 0},
		{0, 0, 5},
		{-3, 7, 1},
		{100, 100, -1},
	}
	for _, p := range pts {
		got, err := PointFromZYXBytes(p.ZYXBytes())
		if err != nil {
			t.Fatalf("error decoding %s: %v\n", p, err)
		}
		if got != p {
			t.Errorf("Expected %s after decode, got %s\n", p, got)
		}
	}

	// z-major ordering of encoded keys.
	lo := Point3d{100, 100, 0}.ZYXBytes()
	hi := Point3d{0, 0, 1}.ZYXBytes()
	if bytes.Compare(lo, hi) >= 0 {
		t.Errorf("Expected z=0 key to sort before z=1 key\n")
	}
	neg := Point3d{0, 0, -1}.ZYXBytes()
	if bytes.Compare(neg, lo) >= 0 {
		t.Errorf("Expected negative z to sort first\n")
	}
	if _, err := PointFromZYXBytes([]byte{1, 2}); err == nil {
		t.Errorf("Expected error on short byte slice\n")
	}
}

func TestStringToPoint3d(t *testing.T) {
	p, err := StringToPoint3d("4, 5,6", ",")
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if p != (Point3d{4, 5, 6}) {
		t.Errorf("Bad parse, got %s\n", p)
	}
	if _, err := StringToPoint3d("4,5", ","); err == nil {
		t.Errorf("Expected error on 2 elements\n")
	}
	if _, err := StringToPoint3d("4,a,5", ","); err == nil {
		t.Errorf("Expected error on non-integer\n")
	}
}
