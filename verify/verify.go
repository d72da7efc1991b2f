// Package verify checks that a compressed grid assigns every cell the same domain
// as the uncompressed grid it was made from.
package verify

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/janelia-flyem/blockmerge/archive"
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
	"github.com/janelia-flyem/blockmerge/gridio"
)

// ErrNotEquivalent is wrapped by every error reporting a difference between grids.
var ErrNotEquivalent = errors.New("grids not equivalent")

// Source supplies compressed blocks with absolute positions.  Blocks of one
// region-deep slice must all come before any block of a later slice.
type Source interface {
	Next() (gridio.BlockRecord, error)
}

// Result summarizes a successful comparison.
type Result struct {
	Cells  int64
	Blocks int64
	Chunks int
}

func (r Result) String() string {
	return fmt.Sprintf("%d cells in %d blocks over %d slices match", r.Cells, r.Blocks, r.Chunks)
}

// CompareCSV compares an uncompressed grid with a compressed one, both as text.
func CompareCSV(unit, compressed io.Reader) (Result, error) {
	ur, err := gridio.NewBlockReader(unit)
	if err != nil {
		return Result{}, fmt.Errorf("uncompressed grid: %w", err)
	}
	cr, err := gridio.NewBlockReader(compressed)
	if err != nil {
		return Result{}, fmt.Errorf("compressed grid: %w", err)
	}
	if ur.Extents() != cr.Extents() {
		return Result{}, fmt.Errorf("uncompressed %s but compressed %s: %w", ur.Extents(), cr.Extents(), ErrNotEquivalent)
	}
	return Compare(ur, cr, ur.Extents())
}

// CompareArchive compares an uncompressed grid in text form with an archive.
func CompareArchive(unit, compressed io.Reader) (Result, error) {
	ur, err := gridio.NewBlockReader(unit)
	if err != nil {
		return Result{}, fmt.Errorf("uncompressed grid: %w", err)
	}
	domains := grid.NewDomains()
	ar, err := archive.NewReader(compressed, domains)
	if err != nil {
		return Result{}, fmt.Errorf("compressed archive: %w", err)
	}
	if ur.Extents() != ar.Extents() {
		return Result{}, fmt.Errorf("uncompressed %s but archive %s: %w", ur.Extents(), ar.Extents(), ErrNotEquivalent)
	}
	return Compare(ur, &ArchiveSource{Reader: ar, Domains: domains}, ur.Extents())
}

type cell struct {
	pos    dvid.Point3d
	domain grid.Tag
	line   int
}

// Compare reads the compressed source one slice at a time, explodes its blocks into
// cells sorted by z, y, then x, and checks them one for one against the unit records.
func Compare(unit *gridio.BlockReader, compressed Source, ext grid.Extents) (Result, error) {
	var result Result
	names := grid.NewDomains() // domains of the compressed blocks
	var pending *gridio.BlockRecord
	exhausted := false
	for z := int32(0); z < ext.Grid[2]; z += ext.Region[2] {
		timedLog := dvid.NewTimeLog()
		zend := z + ext.Region[2]
		var cells []cell
		for !exhausted {
			var rec gridio.BlockRecord
			if pending != nil {
				rec, pending = *pending, nil
			} else {
				var err error
				rec, err = compressed.Next()
				if err == io.EOF {
					exhausted = true
					break
				}
				if err != nil {
					return result, err
				}
			}
			if err := checkPlacement(rec, ext, z); err != nil {
				return result, err
			}
			if rec.Pos[2] >= zend {
				pending = &rec
				break
			}
			result.Blocks++
			tag := names.Tag(rec.Domain)
			end := rec.End()
			for cz := rec.Pos[2]; cz < end[2]; cz++ {
				for cy := rec.Pos[1]; cy < end[1]; cy++ {
					for cx := rec.Pos[0]; cx < end[0]; cx++ {
						cells = append(cells, cell{dvid.Point3d{cx, cy, cz}, tag, rec.Line})
					}
				}
			}
		}
		sort.Slice(cells, func(i, j int) bool {
			a, b := cells[i].pos, cells[j].pos
			if a[2] != b[2] {
				return a[2] < b[2]
			}
			if a[1] != b[1] {
				return a[1] < b[1]
			}
			return a[0] < b[0]
		})
		for _, c := range cells {
			u, err := unit.Next()
			if err == io.EOF {
				return result, fmt.Errorf("compressed block on line %d covers %s beyond the uncompressed cells: %w", c.line, c.pos, ErrNotEquivalent)
			}
			if err != nil {
				return result, err
			}
			if u.Size != (dvid.Point3d{1, 1, 1}) {
				return result, fmt.Errorf("uncompressed line %d: expected unit block, got size %s", u.Line, u.Size)
			}
			if u.Pos != c.pos {
				return result, fmt.Errorf("cell %s (uncompressed line %d) missing, duplicated or out of order in compressed grid: %w", u.Pos, u.Line, ErrNotEquivalent)
			}
			if tag, found := names.Lookup(u.Domain); !found || tag != c.domain {
				name, _ := names.Name(c.domain)
				return result, fmt.Errorf("cell %s is %q in compressed line %d but %q in uncompressed line %d: %w",
					c.pos, name, c.line, u.Domain, u.Line, ErrNotEquivalent)
			}
			result.Cells++
		}
		result.Chunks++
		timedLog.Debugf("Checked slice %d (%d cells)", result.Chunks, len(cells))
	}
	if pending != nil {
		return result, fmt.Errorf("compressed block on line %d lies beyond the grid: %w", pending.Line, ErrNotEquivalent)
	}
	if !exhausted {
		if rec, err := compressed.Next(); err != io.EOF {
			if err != nil {
				return result, err
			}
			return result, fmt.Errorf("compressed block on line %d lies beyond the grid: %w", rec.Line, ErrNotEquivalent)
		}
	}
	if u, err := unit.Next(); err != io.EOF {
		if err != nil {
			return result, err
		}
		return result, fmt.Errorf("cell %s (uncompressed line %d) missing from compressed grid: %w", u.Pos, u.Line, ErrNotEquivalent)
	}
	return result, nil
}

// checkPlacement rejects blocks that start before the current slice or cross a
// region boundary.
func checkPlacement(rec gridio.BlockRecord, ext grid.Extents, zmin int32) error {
	if !rec.Size.Positive() {
		return fmt.Errorf("compressed line %d: block size %s must be positive", rec.Line, rec.Size)
	}
	if !rec.Pos.NonNegative() {
		return fmt.Errorf("compressed line %d: negative position %s", rec.Line, rec.Pos)
	}
	if rec.Pos[2] < zmin {
		return fmt.Errorf("compressed line %d: block at z %d belongs to an earlier slice: %w", rec.Line, rec.Pos[2], ErrNotEquivalent)
	}
	end := rec.End()
	for dim := uint8(0); dim < 3; dim++ {
		if rec.Pos[dim]/ext.Region[dim] != (end[dim]-1)/ext.Region[dim] {
			return fmt.Errorf("compressed line %d: block crosses a region boundary along %s: %w", rec.Line, dvid.AxisName(dim), ErrNotEquivalent)
		}
	}
	return nil
}

// ArchiveSource turns the regions read from an archive into block records.  The
// Line of each record is the 1-based slice frame it came from.
type ArchiveSource struct {
	Reader  *archive.Reader
	Domains *grid.Domains

	pending []gridio.BlockRecord
	slice   int
}

func (a *ArchiveSource) Next() (gridio.BlockRecord, error) {
	for len(a.pending) == 0 {
		regions, err := a.Reader.Next()
		if err != nil {
			return gridio.BlockRecord{}, err
		}
		a.slice++
		for _, r := range regions {
			for _, b := range r.Blocks() {
				name, err := a.Domains.Name(b.Domain)
				if err != nil {
					return gridio.BlockRecord{}, err
				}
				a.pending = append(a.pending, gridio.BlockRecord{
					Pos:    b.Pos.Add(r.Pos),
					Size:   b.Size,
					Domain: name,
					Line:   a.slice,
				})
			}
		}
	}
	rec := a.pending[0]
	a.pending = a.pending[1:]
	return rec, nil
}
