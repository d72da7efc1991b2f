package gridio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// unitGrid returns the text of an uncompressed grid with the given extents whose
// cells are named by fn.
func unitGrid(ext grid.Extents, fn func(x, y, z int32) string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %d,%d,%d,%d,%d,%d\n", ext.Grid[0], ext.Grid[1], ext.Grid[2], ext.Region[0], ext.Region[1], ext.Region[2])
	for z := int32(0); z < ext.Grid[2]; z++ {
		for y := int32(0); y < ext.Grid[1]; y++ {
			for x := int32(0); x < ext.Grid[0]; x++ {
				fmt.Fprintf(&buf, "%d,%d,%d,1,1,1,%s\n", x, y, z, fn(x, y, z))
			}
		}
	}
	return buf.String()
}

func TestReadSlices(t *testing.T) {
	ext := grid.Extents{Grid: dvid.Point3d{4, 2, 4}, Region: dvid.Point3d{2, 2, 2}}
	input := unitGrid(ext, func(x, y, z int32) string {
		return fmt.Sprintf("d%d", (x+z)%3)
	})
	domains := grid.NewDomains()
	r, err := NewReader(strings.NewReader(input), domains)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if r.Extents() != ext {
		t.Errorf("Expected %s, got %s\n", ext, r.Extents())
	}
	for s := int32(0); s < 2; s++ {
		regions, err := r.ReadSlice()
		if err != nil {
			t.Fatalf("slice %d: %v\n", s, err)
		}
		if len(regions) != 2 {
			t.Fatalf("Expected 2 regions in slice %d, got %d\n", s, len(regions))
		}
		for i, region := range regions {
			if region.Pos != (dvid.Point3d{int32(i) * 2, 0, s * 2}) {
				t.Errorf("Bad region position %s\n", region.Pos)
			}
			if !region.Full() || region.NumBlocks() != 8 {
				t.Errorf("Region %s not fully populated\n", region)
			}
			b, _ := region.Get(1, 1, 1)
			abs := b.Pos.Add(region.Pos)
			name, _ := domains.Name(b.Domain)
			if expected := fmt.Sprintf("d%d", (abs[0]+abs[2])%3); name != expected {
				t.Errorf("Cell %s: expected %s, got %s\n", abs, expected, name)
			}
		}
	}
	if _, err := r.ReadSlice(); err != io.EOF {
		t.Errorf("Expected io.EOF after last slice, got %v\n", err)
	}
	if domains.Len() != 3 {
		t.Errorf("Expected 3 domains, got %d\n", domains.Len())
	}
	if name, _ := domains.Name(0); name != "d0" {
		t.Errorf("Expected first seen domain d0 to get tag 0, got %s\n", name)
	}
}

func TestHeaderVariants(t *testing.T) {
	good := []string{"# 4,2,2,2,2,1", "#4,2,2,2,2,1", "#  4, 2, 2, 2, 2, 1 \r\n"}
	for _, h := range good {
		ext, err := ParseHeader(h)
		if err != nil {
			t.Errorf("unexpected error for %q: %v\n", h, err)
		}
		if ext.Grid != (dvid.Point3d{4, 2, 2}) || ext.Region != (dvid.Point3d{2, 2, 1}) {
			t.Errorf("Bad extents for %q: %s\n", h, ext)
		}
	}
	bad := []string{"4,2,2,2,2,1", "# 4,2,2,2,2", "# 4,2,2,a,2,1", "# 4,2,2,0,2,1", "# 4,2,2,3,2,1", "# -4,2,2,2,2,1"}
	for _, h := range bad {
		if _, err := ParseHeader(h); err == nil {
			t.Errorf("Expected error for header %q\n", h)
		}
	}
	if _, err := NewReader(strings.NewReader(""), grid.NewDomains()); err == nil {
		t.Errorf("Expected error for empty input\n")
	}
}

func TestOverlargeHeader(t *testing.T) {
	headers := []string{
		"# 100000,100000,100000,100000,100000,100000\n0,0,0,1,1,1,A\n",
		"# 2147483647,2147483647,2147483647,2147483647,2147483647,2147483647\n",
		"# 65536,65536,2,1,1,1\n0,0,0,1,1,1,A\n",
	}
	for _, input := range headers {
		r, err := NewReader(strings.NewReader(input), grid.NewDomains())
		if err == nil {
			// Reading must not reach the slice allocation.
			_, err = r.ReadSlice()
			t.Errorf("Expected header rejection, ReadSlice returned %v\n", err)
			continue
		}
		var rerr *RecordError
		if !errors.As(err, &rerr) || rerr.Line != 1 {
			t.Errorf("Expected RecordError on line 1, got %v\n", err)
		}
	}
}

func TestReadCommentsAndLines(t *testing.T) {
	input := "# 2,1,1,2,1,1\n# a comment\n\n0,0,0,1,1,1,rock\n1,0,0,1,1,1\n"
	r, err := NewReader(strings.NewReader(input), grid.NewDomains())
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	_, err = r.ReadSlice()
	var rerr *RecordError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected RecordError, got %v\n", err)
	}
	if rerr.Line != 5 || !errors.Is(err, ErrFieldCount) {
		t.Errorf("Expected field count error on line 5, got %v\n", err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := map[string]string{
		"non-unit size":  "# 2,1,1,2,1,1\n0,0,0,2,1,1,a\n",
		"not an integer": "# 2,1,1,2,1,1\n0,x,0,1,1,1,a\n",
		"out of order":   "# 2,1,1,2,1,1\n1,0,0,1,1,1,a\n0,0,0,1,1,1,a\n",
		"outside grid":   "# 2,1,1,2,1,1\n0,0,0,1,1,1,a\n2,0,0,1,1,1,a\n",
		"outside slice":  "# 2,1,2,2,1,1\n0,0,0,1,1,1,a\n1,0,1,1,1,1,a\n",
		"duplicate":      "# 2,1,1,2,1,1\n0,0,0,1,1,1,a\n0,0,0,1,1,1,a\n",
	}
	for name, input := range tests {
		r, err := NewReader(strings.NewReader(input), grid.NewDomains())
		if err != nil {
			t.Fatalf("%s: unexpected header error: %v\n", name, err)
		}
		_, err = r.ReadSlice()
		var rerr *RecordError
		if !errors.As(err, &rerr) {
			t.Errorf("%s: expected RecordError, got %v\n", name, err)
			continue
		}
		if rerr.Line < 2 {
			t.Errorf("%s: bad line number %d\n", name, rerr.Line)
		}
	}

	r, _ := NewReader(strings.NewReader("# 2,1,2,2,1,1\n0,0,0,1,1,1,a\n1,0,0,1,1,1,a\n0,0,1,1,1,1,a\n"), grid.NewDomains())
	if _, err := r.ReadSlice(); err != nil {
		t.Fatalf("unexpected error on first slice: %v\n", err)
	}
	if _, err := r.ReadSlice(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected unexpected EOF on truncated slice, got %v\n", err)
	}

	r, _ = NewReader(strings.NewReader("# 1,1,1,1,1,1\n0,0,0,1,1,1,a\n0,0,1,1,1,1,a\n"), grid.NewDomains())
	if _, err := r.ReadSlice(); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	var rerr *RecordError
	if _, err := r.ReadSlice(); !errors.As(err, &rerr) || rerr.Line != 3 {
		t.Errorf("Expected error for record beyond the grid on line 3, got %v\n", err)
	}
}

func TestWriteAndReadBlocks(t *testing.T) {
	domains := grid.NewDomains()
	ext := grid.Extents{Grid: dvid.Point3d{4, 2, 1}, Region: dvid.Point3d{2, 2, 1}}
	regions := ext.SliceRegions(0)
	left, err := grid.NewRegionFromBlocks(ext.Region, regions[0].Pos, []grid.Block{
		{Size: dvid.Point3d{2, 1, 1}, Pos: dvid.Point3d{0, 0, 0}, Domain: domains.Tag("sand")},
		{Size: dvid.Point3d{2, 1, 1}, Pos: dvid.Point3d{0, 1, 0}, Domain: domains.Tag("clay, wet")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	right, _ := grid.NewRegionFromBlocks(ext.Region, regions[1].Pos, []grid.Block{
		{Size: ext.Region, Domain: domains.Tag("sand")},
	})

	var buf bytes.Buffer
	w := NewWriter(&buf, domains)
	if err := w.WriteHeader(ext); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if err := w.WriteRegions([]*grid.Region{left, right}); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	expected := "# 4,2,1,2,2,1\n0,0,0,2,1,1,sand\n0,1,0,2,1,1,\"clay, wet\"\n2,0,0,2,2,1,sand\n"
	if buf.String() != expected {
		t.Errorf("Expected output:\n%s\ngot:\n%s\n", expected, buf.String())
	}

	br, err := NewBlockReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if br.Extents() != ext {
		t.Errorf("Bad extents read back: %s\n", br.Extents())
	}
	var got []BlockRecord
	for {
		rec, err := br.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v\n", err)
		}
		got = append(got, rec)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 records, got %d\n", len(got))
	}
	if got[1].Domain != "clay, wet" || got[1].Line != 3 || got[1].Pos != (dvid.Point3d{0, 1, 0}) {
		t.Errorf("Bad second record: %+v\n", got[1])
	}
	if got[2].End() != (dvid.Point3d{4, 2, 1}) {
		t.Errorf("Bad end for last record: %s\n", got[2].End())
	}

	bad := NewWriter(io.Discard, grid.NewDomains())
	if err := bad.WriteRegions([]*grid.Region{right}); err == nil {
		t.Errorf("Expected error writing unregistered domain tag\n")
	}
}
