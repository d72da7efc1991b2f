package compressors

import (
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// SameDomain replaces every block in a region with one region-sized block if all of
// them share the domain of the block at the region origin.  A region with mixed
// domains is left untouched.
type SameDomain struct{}

func (SameDomain) String() string { return "samedomain" }

func (SameDomain) Compress(r *grid.Region) int {
	if r.Collapsed() || r.Cells() == 1 {
		return 0
	}
	origin, found := r.Get(0, 0, 0)
	if !found {
		return 0
	}
	for from := 0; ; {
		b, i, ok := r.NextStart(from)
		if !ok {
			break
		}
		if b.Domain != origin.Domain {
			return 0
		}
		from = i + 1
	}
	r.Clear()
	r.Insert(grid.Block{Size: r.Size, Pos: dvid.Point3d{}, Domain: origin.Domain})
	return 1
}
