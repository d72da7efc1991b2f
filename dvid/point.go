package dvid

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Point3d is an ordered list of three 32-bit signed integers.  It is used both for
// positions and for sizes (extents) along the x, y, and z axes.
type Point3d [3]int32

// Axis names used in messages.
var axisNames = [3]string{"x", "y", "z"}

// AxisName returns "x", "y" or "z" for the given dimension.
func AxisName(dim uint8) string {
	if dim > 2 {
		return fmt.Sprintf("dim%d", dim)
	}
	return axisNames[dim]
}

// Add returns the addition of two points.
func (p Point3d) Add(p2 Point3d) Point3d {
	return Point3d{p[0] + p2[0], p[1] + p2[1], p[2] + p2[2]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(p2 Point3d) Point3d {
	return Point3d{p[0] - p2[0], p[1] - p2[1], p[2] - p2[2]}
}

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	if p[0] > p2[0] {
		p[0] = p2[0]
	}
	if p[1] > p2[1] {
		p[1] = p2[1]
	}
	if p[2] > p2[2] {
		p[2] = p2[2]
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	if p[0] < p2[0] {
		p[0] = p2[0]
	}
	if p[1] < p2[1] {
		p[1] = p2[1]
	}
	if p[2] < p2[2] {
		p[2] = p2[2]
	}
}

// SquaredMagnitude returns x*x + y*y + z*z, i.e., the squared distance from the origin.
func (p Point3d) SquaredMagnitude() int64 {
	x, y, z := int64(p[0]), int64(p[1]), int64(p[2])
	return x*x + y*y + z*z
}

// Prod returns the product of the components, e.g., the volume of a size.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// Positive returns true if all components are > 0.
func (p Point3d) Positive() bool {
	return p[0] > 0 && p[1] > 0 && p[2] > 0
}

// NonNegative returns true if all components are >= 0.
func (p Point3d) NonNegative() bool {
	return p[0] >= 0 && p[1] >= 0 && p[2] >= 0
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// ZYXBytes returns a big-endian encoding of the point in z, y, x order with the sign
// bit flipped, so byte-wise key ordering matches z-major coordinate ordering.
func (p Point3d) ZYXBytes() []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint32(b[0:4], uint32(p[2])^0x80000000)
	binary.BigEndian.PutUint32(b[4:8], uint32(p[1])^0x80000000)
	binary.BigEndian.PutUint32(b[8:12], uint32(p[0])^0x80000000)
	return b
}

// PointFromZYXBytes decodes a point encoded with ZYXBytes.
func PointFromZYXBytes(b []byte) (Point3d, error) {
	if len(b) != 12 {
		return Point3d{}, fmt.Errorf("expected 12 bytes for ZYX-encoded point, got %d", len(b))
	}
	z := int32(binary.BigEndian.Uint32(b[0:4]) ^ 0x80000000)
	y := int32(binary.BigEndian.Uint32(b[4:8]) ^ 0x80000000)
	x := int32(binary.BigEndian.Uint32(b[8:12]) ^ 0x80000000)
	return Point3d{x, y, z}, nil
}

// StringToPoint3d parses a string of the form "x<sep>y<sep>z".
func StringToPoint3d(str, separator string) (Point3d, error) {
	elems := strings.Split(str, separator)
	if len(elems) != 3 {
		return Point3d{}, fmt.Errorf("cannot convert %q into a 3d point", str)
	}
	var p Point3d
	for i, elem := range elems {
		v, err := strconv.ParseInt(strings.TrimSpace(elem), 10, 32)
		if err != nil {
			return Point3d{}, fmt.Errorf("cannot convert %q into a 3d point: %v", str, err)
		}
		p[i] = int32(v)
	}
	return p, nil
}
