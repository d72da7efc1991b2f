package grid

import (
	"fmt"

	"github.com/janelia-flyem/blockmerge/dvid"
)

// Block is an axis-aligned cuboid of a single domain.  Its position is relative to
// the origin of the owning Region.  Blocks are values: merging produces a new Block.
type Block struct {
	Size   dvid.Point3d
	Pos    dvid.Point3d
	Domain Tag
}

// UnitBlock returns a 1x1x1 block at the given position.
func UnitBlock(pos dvid.Point3d, domain Tag) Block {
	return Block{Size: dvid.Point3d{1, 1, 1}, Pos: pos, Domain: domain}
}

// End returns the exclusive end coordinate, Pos + Size.
func (b Block) End() dvid.Point3d {
	return b.Pos.Add(b.Size)
}

// Volume returns the number of unit cells covered.
func (b Block) Volume() int64 {
	return b.Size.Prod()
}

// Contains returns true if the coordinate lies within the block's footprint.
func (b Block) Contains(p dvid.Point3d) bool {
	end := b.End()
	for i := 0; i < 3; i++ {
		if p[i] < b.Pos[i] || p[i] >= end[i] {
			return false
		}
	}
	return true
}

func (b Block) String() string {
	return fmt.Sprintf("block %s @ %s domain %d", b.Size, b.Pos, b.Domain)
}

// Combine returns the bounding box of the given blocks.  The domain comes from the
// block whose position is nearest the region origin.  Positions are never negative,
// so the nearest position is also the minimum corner on every axis.  When several
// blocks tie, the first one in the slice wins; callers should not rely on which.
// Combine panics if given no blocks.
func Combine(blocks []Block) Block {
	if len(blocks) == 0 {
		panic("grid.Combine called with no blocks")
	}
	start := blocks[0].Pos
	end := blocks[0].End()
	domain := blocks[0].Domain
	nearest := blocks[0].Pos.SquaredMagnitude()
	for _, b := range blocks[1:] {
		start.SetMinimum(b.Pos)
		end.SetMaximum(b.End())
		if d := b.Pos.SquaredMagnitude(); d < nearest {
			nearest = d
			domain = b.Domain
		}
	}
	return Block{Size: end.Sub(start), Pos: start, Domain: domain}
}
