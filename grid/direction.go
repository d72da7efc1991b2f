package grid

// Direction is one of the six axis-aligned faces of a block.
type Direction uint8

const (
	PosX Direction = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// PositiveDirections are the directions searched by expanding compressors, in
// tie-break order.
var PositiveDirections = [3]Direction{PosX, PosY, PosZ}

// Axis returns 0, 1, or 2 for x, y, or z.
func (d Direction) Axis() uint8 {
	return uint8(d) / 2
}

// Positive returns true for +x, +y and +z.
func (d Direction) Positive() bool {
	return d%2 == 0
}

func (d Direction) String() string {
	switch d {
	case PosX:
		return "+x"
	case NegX:
		return "-x"
	case PosY:
		return "+y"
	case NegY:
		return "-y"
	case PosZ:
		return "+z"
	case NegZ:
		return "-z"
	default:
		return "unknown direction"
	}
}
