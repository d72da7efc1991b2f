package grid

import (
	"fmt"

	"github.com/janelia-flyem/blockmerge/dvid"
)

type slotKind uint8

const (
	emptySlot   slotKind = iota
	blockSlot            // a Block starts at this slot
	forwardSlot          // the covering Block starts at target
)

// slot is one cell of a Region's backing store.
type slot struct {
	kind   slotKind
	block  Block        // valid if kind == blockSlot
	target dvid.Point3d // valid if kind == forwardSlot
}

// Region is a fixed-size, independently compressible subdivision of the grid.  A
// Region is owned by one goroutine at a time and is not safe for concurrent use.
type Region struct {
	// Size is the extent of the region in unit cells.
	Size dvid.Point3d

	// Pos is the absolute position of the region's origin in the grid.
	Pos dvid.Point3d

	slots     []slot
	numBlocks int

	// collapsed is set when the whole region is one Block held in a single slot.
	collapsed bool
}

// NewRegion returns an empty region of the given size at the given absolute position.
func NewRegion(size, pos dvid.Point3d) *Region {
	if !size.Positive() {
		panic(fmt.Sprintf("grid.NewRegion: bad region size %s", size))
	}
	return &Region{
		Size:  size,
		Pos:   pos,
		slots: make([]slot, 0, size.Prod()),
	}
}

// NewRegionFromBlocks builds a region from blocks that must exactly tile it.  This is
// used to restore compressed regions, so blocks may be of any size and in any order.
func NewRegionFromBlocks(size, pos dvid.Point3d, blocks []Block) (*Region, error) {
	if !size.Positive() {
		return nil, fmt.Errorf("region %s: bad size %s", pos, size)
	}
	if !cellsAtMost(size, MaxRegionCells) {
		return nil, fmt.Errorf("region %s: size %s has more than %d cells", pos, size, MaxRegionCells)
	}
	r := NewRegion(size, pos)
	if len(blocks) == 1 && blocks[0].Size == size && blocks[0].Pos == (dvid.Point3d{}) {
		r.Insert(blocks[0])
		return r, nil
	}
	r.slots = r.slots[:r.Cells()]
	for _, b := range blocks {
		if !b.Size.Positive() {
			return nil, fmt.Errorf("region %s: %s has non-positive size", pos, b)
		}
		if !r.within(b) {
			return nil, fmt.Errorf("region %s: %s extends outside region of size %s", pos, b, size)
		}
		end := b.End()
		for z := b.Pos[2]; z < end[2]; z++ {
			for y := b.Pos[1]; y < end[1]; y++ {
				for x := b.Pos[0]; x < end[0]; x++ {
					i := r.index(x, y, z)
					if r.slots[i].kind != emptySlot {
						return nil, fmt.Errorf("region %s: %s overlaps another block at (%d,%d,%d)", pos, b, x, y, z)
					}
					r.slots[i] = slot{kind: forwardSlot, target: b.Pos}
				}
			}
		}
		r.slots[r.index(b.Pos[0], b.Pos[1], b.Pos[2])] = slot{kind: blockSlot, block: b}
		r.numBlocks++
	}
	for i, s := range r.slots {
		if s.kind == emptySlot {
			return nil, fmt.Errorf("region %s: cell %s not covered by any block", pos, r.coord(i))
		}
	}
	return r, nil
}

// Cells returns the number of unit cells in the region.
func (r *Region) Cells() int {
	return int(r.Size.Prod())
}

// NumBlocks returns the number of live blocks in the region.
func (r *Region) NumBlocks() int {
	return r.numBlocks
}

// Collapsed returns true if the region is held as a single block.
func (r *Region) Collapsed() bool {
	return r.collapsed
}

// Full returns true if every cell of the region is covered.
func (r *Region) Full() bool {
	return r.collapsed || len(r.slots) == r.Cells()
}

// NextInsert returns the coordinate the next inserted unit block must have, or false
// if the region is already full.
func (r *Region) NextInsert() (dvid.Point3d, bool) {
	if r.Full() {
		return dvid.Point3d{}, false
	}
	return r.coord(len(r.slots)), true
}

// Insert appends a block during initial population.  Unit blocks must arrive in index
// order (x fastest, then y, then z), so the insertion order is the index.  A block the
// size of the whole region may be inserted into an empty region, which stores it as
// the collapsed single-block form.
func (r *Region) Insert(b Block) {
	if len(r.slots) == 0 && b.Size == r.Size && b.Pos == (dvid.Point3d{}) {
		r.slots = append(r.slots[:0], slot{kind: blockSlot, block: b})
		r.numBlocks = 1
		r.collapsed = r.Cells() > 1
		return
	}
	next, ok := r.NextInsert()
	if !ok {
		panic(fmt.Sprintf("grid: insert of %s into full region %s", b, r.Pos))
	}
	if b.Pos != next || b.Size != (dvid.Point3d{1, 1, 1}) {
		panic(fmt.Sprintf("grid: insert of %s into region %s, expected unit block at %s", b, r.Pos, next))
	}
	r.slots = append(r.slots, slot{kind: blockSlot, block: b})
	r.numBlocks++
}

// Clear removes all blocks from the region.
func (r *Region) Clear() {
	r.slots = nil
	r.numBlocks = 0
	r.collapsed = false
}

// Get returns the block covering the given region-relative coordinate.  It returns
// false if the coordinate is outside the region or not yet populated.
func (r *Region) Get(x, y, z int32) (Block, bool) {
	if !r.inBounds(x, y, z) {
		return Block{}, false
	}
	if r.collapsed {
		return r.slots[0].block, true
	}
	i := r.index(x, y, z)
	if i >= len(r.slots) {
		return Block{}, false
	}
	switch r.slots[i].kind {
	case blockSlot:
		return r.slots[i].block, true
	case forwardSlot:
		return r.resolve(i), true
	default:
		return Block{}, false
	}
}

// At is Get for a point.
func (r *Region) At(p dvid.Point3d) (Block, bool) {
	return r.Get(p[0], p[1], p[2])
}

// resolve follows the forwarding slot at i to its block.  Combine never produces
// chains, but if one is found it is flattened so the slot forwards in one hop.
func (r *Region) resolve(i int) Block {
	target := r.slots[i].target
	for hops := 0; hops < len(r.slots); hops++ {
		j := r.index(target[0], target[1], target[2])
		s := r.slots[j]
		switch s.kind {
		case blockSlot:
			if hops > 0 {
				dvid.Debugf("region %s: flattened %d-hop forward at %s\n", r.Pos, hops+1, r.coord(i))
				r.slots[i].target = target
			}
			return s.block
		case forwardSlot:
			target = s.target
		default:
			panic(fmt.Sprintf("grid: region %s slot %s forwards to empty slot %s", r.Pos, r.coord(i), target))
		}
	}
	panic(fmt.Sprintf("grid: forwarding cycle in region %s at %s", r.Pos, r.coord(i)))
}

// Neighbors returns the distinct blocks touching the given face of a block.  The
// searched slab is one cell thick and has the block's extent along the other two
// axes.  Coordinates outside the region contribute nothing.
func (r *Region) Neighbors(b Block, dir Direction) []Block {
	start := b.Pos
	end := b.End()
	axis := dir.Axis()
	if dir.Positive() {
		start[axis] = end[axis]
		end[axis]++
	} else {
		end[axis] = start[axis]
		start[axis]--
	}
	start.SetMaximum(dvid.Point3d{})
	end.SetMinimum(r.Size)

	var neighbors []Block
	seen := make(map[dvid.Point3d]struct{})
	for z := start[2]; z < end[2]; z++ {
		for y := start[1]; y < end[1]; y++ {
			for x := start[0]; x < end[0]; x++ {
				n, found := r.Get(x, y, z)
				if !found {
					continue
				}
				if _, dup := seen[n.Pos]; dup {
					continue
				}
				seen[n.Pos] = struct{}{}
				neighbors = append(neighbors, n)
			}
		}
	}
	return neighbors
}

// Combine merges blocks into their bounding box and returns the new block.  The
// blocks must exactly tile the bounding box, as is the case for a block and the
// flush-aligned neighbors on one of its faces.  Every cell of the inputs is
// repointed to the new block's start slot.
func (r *Region) Combine(blocks []Block) Block {
	merged := Combine(blocks)
	if r.collapsed {
		for _, b := range blocks {
			if b != r.slots[0].block {
				panic(fmt.Sprintf("grid: combine of %s in collapsed region %s", b, r.Pos))
			}
		}
		return merged
	}
	if !r.Full() {
		panic(fmt.Sprintf("grid: combine in partially populated region %s", r.Pos))
	}
	if !r.within(merged) {
		panic(fmt.Sprintf("grid: combined %s outside region %s of size %s", merged, r.Pos, r.Size))
	}

	var volume int64
	unique := make(map[dvid.Point3d]struct{}, len(blocks))
	for _, b := range blocks {
		if _, dup := unique[b.Pos]; dup {
			continue
		}
		unique[b.Pos] = struct{}{}
		volume += b.Volume()
		end := b.End()
		for z := b.Pos[2]; z < end[2]; z++ {
			for y := b.Pos[1]; y < end[1]; y++ {
				for x := b.Pos[0]; x < end[0]; x++ {
					r.slots[r.index(x, y, z)] = slot{kind: forwardSlot, target: merged.Pos}
				}
			}
		}
	}
	if volume != merged.Volume() {
		panic(fmt.Sprintf("grid: blocks combined into %s in region %s do not tile it (%d of %d cells)",
			merged, r.Pos, volume, merged.Volume()))
	}
	r.slots[r.index(merged.Pos[0], merged.Pos[1], merged.Pos[2])] = slot{kind: blockSlot, block: merged}
	r.numBlocks -= len(unique) - 1
	return merged
}

// NextStart returns the first block whose start slot index is >= from, along with
// that index.  Iterating with NextStart sees merges done since the last call.
func (r *Region) NextStart(from int) (Block, int, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(r.slots); i++ {
		if r.slots[i].kind == blockSlot {
			return r.slots[i].block, i, true
		}
	}
	return Block{}, -1, false
}

// Blocks returns the live blocks in index order of their start.
func (r *Region) Blocks() []Block {
	blocks := make([]Block, 0, r.numBlocks)
	for _, s := range r.slots {
		if s.kind == blockSlot {
			blocks = append(blocks, s.block)
		}
	}
	return blocks
}

// CellDomains returns the domain of every cell in index order.
func (r *Region) CellDomains() []Tag {
	tags := make([]Tag, 0, r.Cells())
	for z := int32(0); z < r.Size[2]; z++ {
		for y := int32(0); y < r.Size[1]; y++ {
			for x := int32(0); x < r.Size[0]; x++ {
				b, found := r.Get(x, y, z)
				if !found {
					panic(fmt.Sprintf("grid: region %s has no block at (%d,%d,%d)", r.Pos, x, y, z))
				}
				tags = append(tags, b.Domain)
			}
		}
	}
	return tags
}

func (r *Region) String() string {
	return fmt.Sprintf("region %s @ %s (%d blocks)", r.Size, r.Pos, r.numBlocks)
}

func (r *Region) index(x, y, z int32) int {
	return int(z)*int(r.Size[0])*int(r.Size[1]) + int(y)*int(r.Size[0]) + int(x)
}

func (r *Region) coord(i int) dvid.Point3d {
	nx, ny := int(r.Size[0]), int(r.Size[1])
	return dvid.Point3d{int32(i % nx), int32((i / nx) % ny), int32(i / (nx * ny))}
}

func (r *Region) inBounds(x, y, z int32) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < r.Size[0] && y < r.Size[1] && z < r.Size[2]
}

func (r *Region) within(b Block) bool {
	end := b.End()
	return b.Pos.NonNegative() && end[0] <= r.Size[0] && end[1] <= r.Size[1] && end[2] <= r.Size[2]
}
