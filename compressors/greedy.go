package compressors

import (
	"github.com/janelia-flyem/blockmerge/grid"
)

// GreedyExpander visits blocks in index order of their start and, for each, keeps
// absorbing the largest valid set of neighbors on its +x, +y or +z face until no face
// qualifies.  A neighbor set is valid if every member has the block's domain and lies
// within the block's extent on the two axes orthogonal to the face, so the merged
// block is again a cuboid.  Ties go to the first face in +x, +y, +z order.
//
// Only positive faces are searched.  Blocks are visited by increasing start index,
// so the negative side of a block is reached later by the positive search of the
// block on that side.  Searching both ways would change which blocks result.
//
// The result is not a minimum cover.
type GreedyExpander struct{}

func (GreedyExpander) String() string { return "greedy" }

func (GreedyExpander) Compress(r *grid.Region) int {
	return expand(r, grid.PositiveDirections[:])
}

// RunLength is GreedyExpander restricted to the positive direction of one axis, which
// merges runs of same-domain blocks along that axis only.
type RunLength struct {
	Axis uint8 // 0, 1, or 2 for x, y, z
}

func (c RunLength) String() string {
	return "runlength-" + [3]string{"x", "y", "z"}[c.Axis%3]
}

func (c RunLength) Compress(r *grid.Region) int {
	return expand(r, grid.PositiveDirections[c.Axis%3:c.Axis%3+1])
}

// expand runs absorption attempts for every block start until each one fails.
func expand(r *grid.Region, dirs []grid.Direction) int {
	if r.Collapsed() {
		return 0
	}
	var merges int
	for from := 0; ; {
		b, i, ok := r.NextStart(from)
		if !ok {
			break
		}
		pos := b.Pos
		for {
			// Earlier merges may have replaced b, so always look it up again.
			if b, ok = r.At(pos); !ok || b.Pos != pos {
				break
			}
			if !absorb(r, b, dirs) {
				break
			}
			merges++
		}
		from = i + 1
	}
	return merges
}

// absorb makes one absorption attempt for b and returns true if it merged.
func absorb(r *grid.Region, b grid.Block, dirs []grid.Direction) bool {
	var best []grid.Block
	for _, dir := range dirs {
		neighbors := r.Neighbors(b, dir)
		if !aligned(b, dir, neighbors) {
			continue
		}
		if len(neighbors) > len(best) {
			best = neighbors
		}
	}
	if len(best) == 0 {
		return false
	}
	r.Combine(append(best, b))
	return true
}

// aligned returns true if every neighbor shares b's domain and stays within b's extent
// on the axes other than the direction's.  Neighbors must also be equally deep along
// the direction's axis, which always holds for blocks not yet visited as origins but
// not for regions restored from already compressed blocks.
func aligned(b grid.Block, dir grid.Direction, neighbors []grid.Block) bool {
	axis := dir.Axis()
	end := b.End()
	for i, n := range neighbors {
		if n.Domain != b.Domain {
			return false
		}
		if i > 0 && n.Size[axis] != neighbors[0].Size[axis] {
			return false
		}
		nEnd := n.End()
		for dim := uint8(0); dim < 3; dim++ {
			if dim == axis {
				continue
			}
			if n.Pos[dim] < b.Pos[dim] || nEnd[dim] > end[dim] {
				return false
			}
		}
	}
	return true
}
