package grid

import (
	"fmt"

	"github.com/janelia-flyem/blockmerge/dvid"
)

const (
	// MaxRegionCells bounds the number of cells in one region.
	MaxRegionCells = 1 << 24

	// MaxSliceCells bounds the number of cells in one slice, all of which are held in
	// memory while the slice is compressed.
	MaxSliceCells = 1 << 26
)

// Extents gives the size of the whole grid and of the regions that tile it.
type Extents struct {
	Grid   dvid.Point3d
	Region dvid.Point3d
}

// Validate checks that the extents are usable: non-negative grid, positive region
// size, and regions that tile the grid exactly.
func (e Extents) Validate() error {
	if !e.Grid.NonNegative() {
		return fmt.Errorf("grid extent %s has negative components", e.Grid)
	}
	if !e.Region.Positive() {
		return fmt.Errorf("region extent %s must be positive on every axis", e.Region)
	}
	for dim := uint8(0); dim < 3; dim++ {
		if e.Grid[dim]%e.Region[dim] != 0 {
			return fmt.Errorf("grid extent %d along %s is not a multiple of region extent %d",
				e.Grid[dim], dvid.AxisName(dim), e.Region[dim])
		}
	}
	if !cellsAtMost(e.Region, MaxRegionCells) {
		return fmt.Errorf("region extent %s has more than %d cells", e.Region, MaxRegionCells)
	}
	slice := dvid.Point3d{e.Grid[0], e.Grid[1], e.Region[2]}
	if !cellsAtMost(slice, MaxSliceCells) {
		return fmt.Errorf("slice of %s has more than %d cells", slice, MaxSliceCells)
	}
	return nil
}

// cellsAtMost returns true if a non-negative extent holds no more than limit cells.
// The running product stays below limit times one component, so it cannot overflow.
func cellsAtMost(size dvid.Point3d, limit int64) bool {
	if size[0] == 0 || size[1] == 0 || size[2] == 0 {
		return true
	}
	n := int64(1)
	for _, v := range size {
		n *= int64(v)
		if n > limit {
			return false
		}
	}
	return true
}

// RegionsPerSlice returns the number of regions along x and y in one slice.
func (e Extents) RegionsPerSlice() (nx, ny int32) {
	return e.Grid[0] / e.Region[0], e.Grid[1] / e.Region[1]
}

// NumSlices returns the number of region-deep slices along z.
func (e Extents) NumSlices() int32 {
	return e.Grid[2] / e.Region[2]
}

// SliceRegions returns the empty regions making up slice number s, ordered by y
// then x.
func (e Extents) SliceRegions(s int32) []*Region {
	nx, ny := e.RegionsPerSlice()
	regions := make([]*Region, 0, nx*ny)
	for ry := int32(0); ry < ny; ry++ {
		for rx := int32(0); rx < nx; rx++ {
			pos := dvid.Point3d{rx * e.Region[0], ry * e.Region[1], s * e.Region[2]}
			regions = append(regions, NewRegion(e.Region, pos))
		}
	}
	return regions
}

func (e Extents) String() string {
	return fmt.Sprintf("grid %s in regions of %s", e.Grid, e.Region)
}
