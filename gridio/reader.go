package gridio

import (
	"fmt"
	"io"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// Reader reads an uncompressed grid one slice at a time, registering domain names as
// they are first seen.
type Reader struct {
	blocks  *BlockReader
	domains *grid.Domains
	slice   int32
}

// NewReader reads the header from r.  Domain names are registered in domains.
func NewReader(r io.Reader, domains *grid.Domains) (*Reader, error) {
	br, err := NewBlockReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{blocks: br, domains: domains}, nil
}

// Extents returns the extents declared in the header.
func (r *Reader) Extents() grid.Extents {
	return r.blocks.extents
}

// Slice returns the number of slices read so far.
func (r *Reader) Slice() int32 {
	return r.slice
}

// ReadSlice returns the fully populated regions of the next slice, ordered by y then
// x.  It returns io.EOF when all slices have been read.  Records must be unit blocks
// sorted by z, y, then x; anything else is returned as a *RecordError.
func (r *Reader) ReadSlice() ([]*grid.Region, error) {
	ext := r.blocks.extents
	if r.slice >= ext.NumSlices() {
		rec, err := r.blocks.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		return nil, recordError(rec, fmt.Errorf("record beyond the %d slices of %s", ext.NumSlices(), ext))
	}

	regions := ext.SliceRegions(r.slice)
	nx, _ := ext.RegionsPerSlice()
	zmin := r.slice * ext.Region[2]
	cells := int(ext.Grid[0]) * int(ext.Grid[1]) * int(ext.Region[2])
	for n := 0; n < cells; n++ {
		rec, err := r.blocks.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("input ended in slice %d of %d after %d of %d cells: %w",
				r.slice, ext.NumSlices(), n, cells, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return nil, err
		}
		if rec.Size != (dvid.Point3d{1, 1, 1}) {
			return nil, recordError(rec, fmt.Errorf("expected unit block, got size %s", rec.Size))
		}
		p := rec.Pos
		if !p.NonNegative() || p[0] >= ext.Grid[0] || p[1] >= ext.Grid[1] || p[2] >= ext.Grid[2] {
			return nil, recordError(rec, fmt.Errorf("position %s outside %s", p, ext))
		}
		if p[2] < zmin || p[2] >= zmin+ext.Region[2] {
			return nil, recordError(rec, fmt.Errorf("position %s outside slice %d (z %d-%d)", p, r.slice, zmin, zmin+ext.Region[2]-1))
		}
		region := regions[(p[1]/ext.Region[1])*nx+p[0]/ext.Region[0]]
		local := p.Sub(region.Pos)
		if next, _ := region.NextInsert(); next != local {
			return nil, recordError(rec, fmt.Errorf("out of order: expected %s next in region at %s", next.Add(region.Pos), region.Pos))
		}
		region.Insert(grid.UnitBlock(local, r.domains.Tag(rec.Domain)))
	}
	r.slice++
	return regions, nil
}

func recordError(rec BlockRecord, err error) error {
	text := fmt.Sprintf("%d,%d,%d,%d,%d,%d,%s", rec.Pos[0], rec.Pos[1], rec.Pos[2],
		rec.Size[0], rec.Size[1], rec.Size[2], rec.Domain)
	return &RecordError{Line: rec.Line, Record: text, Err: err}
}
