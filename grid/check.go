package grid

import (
	"fmt"

	"github.com/janelia-flyem/blockmerge/dvid"
)

// Check verifies the structural invariants of a populated region: every cell resolves
// in at most one hop to a block covering it, blocks lie inside the region, and no two
// blocks overlap.  It does not modify the region.
func (r *Region) Check() error {
	if r.collapsed {
		if len(r.slots) != 1 || r.numBlocks != 1 {
			return fmt.Errorf("region %s: collapsed with %d slots and %d blocks", r.Pos, len(r.slots), r.numBlocks)
		}
		b := r.slots[0].block
		if b.Size != r.Size || b.Pos != (dvid.Point3d{}) {
			return fmt.Errorf("region %s: collapsed block %s does not cover region of size %s", r.Pos, b, r.Size)
		}
		return nil
	}
	if len(r.slots) != r.Cells() {
		return fmt.Errorf("region %s: %d of %d cells populated", r.Pos, len(r.slots), r.Cells())
	}

	var numBlocks int
	var volume int64
	for i, s := range r.slots {
		here := r.coord(i)
		switch s.kind {
		case emptySlot:
			return fmt.Errorf("region %s: cell %s is empty", r.Pos, here)
		case forwardSlot:
			t := s.target
			if !r.inBounds(t[0], t[1], t[2]) {
				return fmt.Errorf("region %s: cell %s forwards outside region to %s", r.Pos, here, t)
			}
			ts := r.slots[r.index(t[0], t[1], t[2])]
			if ts.kind != blockSlot {
				return fmt.Errorf("region %s: cell %s forwards to %s, which holds no block", r.Pos, here, t)
			}
			if !ts.block.Contains(here) {
				return fmt.Errorf("region %s: cell %s forwards to %s, which does not cover it", r.Pos, here, ts.block)
			}
		case blockSlot:
			b := s.block
			if b.Pos != here {
				return fmt.Errorf("region %s: %s stored at cell %s", r.Pos, b, here)
			}
			if !b.Size.Positive() || !r.within(b) {
				return fmt.Errorf("region %s: %s does not fit region of size %s", r.Pos, b, r.Size)
			}
			numBlocks++
			volume += b.Volume()
		}
	}
	if numBlocks != r.numBlocks {
		return fmt.Errorf("region %s: counted %d blocks, expected %d", r.Pos, numBlocks, r.numBlocks)
	}
	// Every cell is claimed by exactly one block it resolves to, so the block volumes
	// sum to the region volume only if no two blocks overlap.
	if volume != int64(r.Cells()) {
		return fmt.Errorf("region %s: block volumes sum to %d cells, region has %d", r.Pos, volume, r.Cells())
	}
	return nil
}
