package compressors

import (
	"math/rand"
	"testing"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// populate fills a region with unit blocks named by the given domain strings in
// index order.
func populate(t *testing.T, domains *grid.Domains, size dvid.Point3d, names ...string) *grid.Region {
	t.Helper()
	if int64(len(names)) != size.Prod() {
		t.Fatalf("need %d names for region %s, got %d\n", size.Prod(), size, len(names))
	}
	r := grid.NewRegion(size, dvid.Point3d{})
	for _, name := range names {
		pos, _ := r.NextInsert()
		r.Insert(grid.UnitBlock(pos, domains.Tag(name)))
	}
	return r
}

func randomRegion(rng *rand.Rand, size dvid.Point3d, numDomains int) *grid.Region {
	r := grid.NewRegion(size, dvid.Point3d{})
	for i := int64(0); i < size.Prod(); i++ {
		pos, _ := r.NextInsert()
		r.Insert(grid.UnitBlock(pos, grid.Tag(rng.Intn(numDomains))))
	}
	return r
}

func TestSameDomainCollapse(t *testing.T) {
	domains := grid.NewDomains()
	size := dvid.Point3d{2, 2, 2}
	r := populate(t, domains, size, "X", "X", "X", "X", "X", "X", "X", "X")
	if merges := (SameDomain{}).Compress(r); merges != 1 {
		t.Errorf("Expected one collapse, got %d\n", merges)
	}
	blocks := r.Blocks()
	expected := grid.Block{Size: size, Domain: domains.Tag("X")}
	if len(blocks) != 1 || blocks[0] != expected {
		t.Fatalf("Expected single block %s, got %v\n", expected, blocks)
	}
	if !r.Collapsed() {
		t.Errorf("Expected collapsed region\n")
	}
	if merges := (SameDomain{}).Compress(r); merges != 0 {
		t.Errorf("Second collapse should do nothing, got %d merges\n", merges)
	}
	if err := r.Check(); err != nil {
		t.Errorf("Check failed: %v\n", err)
	}
}

func TestSameDomainMixedUnchanged(t *testing.T) {
	domains := grid.NewDomains()
	r := populate(t, domains, dvid.Point3d{2, 2, 1}, "A", "A", "A", "B")
	before := r.Blocks()
	if merges := (SameDomain{}).Compress(r); merges != 0 {
		t.Errorf("Expected no collapse of mixed region, got %d\n", merges)
	}
	after := r.Blocks()
	if len(after) != len(before) {
		t.Fatalf("Mixed region changed from %d to %d blocks\n", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Block %d changed from %s to %s\n", i, before[i], after[i])
		}
	}
}

func TestGreedyTwoRows(t *testing.T) {
	domains := grid.NewDomains()
	r := populate(t, domains, dvid.Point3d{2, 2, 1}, "A", "A", "B", "B")
	if merges := (GreedyExpander{}).Compress(r); merges != 2 {
		t.Errorf("Expected 2 merges, got %d\n", merges)
	}
	expected := []grid.Block{
		{Size: dvid.Point3d{2, 1, 1}, Pos: dvid.Point3d{0, 0, 0}, Domain: domains.Tag("A")},
		{Size: dvid.Point3d{2, 1, 1}, Pos: dvid.Point3d{0, 1, 0}, Domain: domains.Tag("B")},
	}
	got := r.Blocks()
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v\n", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Block %d: expected %s, got %s\n", i, expected[i], got[i])
		}
	}
}

func TestGreedyPrefersLargestFace(t *testing.T) {
	// 2x3x1 with the first column all A and the second column B below, A at top:
	//   y=2: A A
	//   y=1: A B
	//   y=0: A B
	// The origin can only grow along +y; the top-right A later joins nothing.
	domains := grid.NewDomains()
	r := populate(t, domains, dvid.Point3d{2, 3, 1}, "A", "B", "A", "B", "A", "A")
	(GreedyExpander{}).Compress(r)
	a, b := domains.Tag("A"), domains.Tag("B")
	expected := []grid.Block{
		{Size: dvid.Point3d{1, 3, 1}, Pos: dvid.Point3d{0, 0, 0}, Domain: a},
		{Size: dvid.Point3d{1, 2, 1}, Pos: dvid.Point3d{1, 0, 0}, Domain: b},
		{Size: dvid.Point3d{1, 1, 1}, Pos: dvid.Point3d{1, 2, 0}, Domain: a},
	}
	got := r.Blocks()
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v\n", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Block %d: expected %s, got %s\n", i, expected[i], got[i])
		}
	}
}

func TestGreedyTieGoesToX(t *testing.T) {
	domains := grid.NewDomains()
	r := populate(t, domains, dvid.Point3d{2, 2, 1}, "A", "A", "A", "A")
	(GreedyExpander{}).Compress(r)
	got := r.Blocks()
	if len(got) != 1 || got[0].Size != (dvid.Point3d{2, 2, 1}) {
		t.Fatalf("Expected one 2x2x1 block, got %v\n", got)
	}
	// With only +x then +y merges happening, the region is not the collapsed form.
	if r.Collapsed() {
		t.Errorf("Greedy expansion should not produce the collapsed form\n")
	}
}

func TestRunLength(t *testing.T) {
	domains := grid.NewDomains()
	names := []string{"A", "A", "A", "A", "A", "A", "A", "A"}
	for axis := uint8(0); axis < 3; axis++ {
		r := populate(t, domains, dvid.Point3d{2, 2, 2}, names...)
		c := RunLength{Axis: axis}
		if merges := c.Compress(r); merges != 4 {
			t.Errorf("%s: expected 4 merges, got %d\n", c, merges)
		}
		for _, b := range r.Blocks() {
			if b.Size[axis] != 2 || b.Volume() != 2 {
				t.Errorf("%s: expected runs of 2 along the axis, got %s\n", c, b)
			}
		}
		if err := r.Check(); err != nil {
			t.Errorf("%s: check failed: %v\n", c, err)
		}
	}
}

func TestExpandersPreserveDomains(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sizes := []dvid.Point3d{{1, 1, 1}, {4, 4, 4}, {5, 3, 2}, {8, 1, 3}, {6, 6, 1}}
	compressors := []Compressor{GreedyExpander{}, RunLength{Axis: 0}, RunLength{Axis: 2}, SameDomain{}}
	for _, size := range sizes {
		for _, numDomains := range []int{1, 2, 3} {
			for _, c := range compressors {
				r := randomRegion(rng, size, numDomains)
				before := r.CellDomains()
				numBefore := r.NumBlocks()

				merges := c.Compress(r)
				if err := r.Check(); err != nil {
					t.Fatalf("%s on %s: %v\n", c, size, err)
				}
				after := r.CellDomains()
				for i := range before {
					if before[i] != after[i] {
						t.Fatalf("%s on %s: cell %d changed domain %d -> %d\n", c, size, i, before[i], after[i])
					}
				}
				if r.NumBlocks() > numBefore {
					t.Errorf("%s on %s: block count grew from %d to %d\n", c, size, numBefore, r.NumBlocks())
				}
				if _, ok := c.(SameDomain); !ok && numBefore-r.NumBlocks() < merges {
					t.Errorf("%s on %s: %d merges only removed %d blocks\n", c, size, merges, numBefore-r.NumBlocks())
				}
				blocks := r.Blocks()
				for i := range blocks {
					for j := i + 1; j < len(blocks); j++ {
						if blocks[i].Overlaps(blocks[j]) {
							t.Errorf("%s on %s: %s overlaps %s\n", c, size, blocks[i], blocks[j])
						}
					}
				}
				if again := c.Compress(r); again != 0 {
					t.Errorf("%s on %s: second pass made %d merges\n", c, size, again)
				}
			}
		}
	}
}

func TestGreedyOnRestoredRegion(t *testing.T) {
	// Neighbors of unequal depth must not be merged into a non-cuboid.
	size := dvid.Point3d{2, 3, 1}
	blocks := []grid.Block{
		{Size: dvid.Point3d{2, 1, 1}, Pos: dvid.Point3d{0, 0, 0}},
		{Size: dvid.Point3d{1, 1, 1}, Pos: dvid.Point3d{0, 1, 0}},
		{Size: dvid.Point3d{1, 2, 1}, Pos: dvid.Point3d{1, 1, 0}},
		{Size: dvid.Point3d{1, 1, 1}, Pos: dvid.Point3d{0, 2, 0}, Domain: 1},
	}
	r, err := grid.NewRegionFromBlocks(size, dvid.Point3d{}, blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	(GreedyExpander{}).Compress(r)
	if err := r.Check(); err != nil {
		t.Errorf("Check failed: %v\n", err)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		c, err := New(name)
		if err != nil {
			t.Errorf("unexpected error for %q: %v\n", name, err)
			continue
		}
		if c.String() != name {
			t.Errorf("New(%q) returned %s\n", name, c)
		}
	}
	if _, err := New("optimal"); err == nil {
		t.Errorf("Expected error for unknown compressor\n")
	}
}
