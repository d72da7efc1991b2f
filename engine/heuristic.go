package engine

import (
	"fmt"

	"github.com/janelia-flyem/blockmerge/compressors"
	"github.com/janelia-flyem/blockmerge/grid"
)

// DefaultThreshold is the block count a region must exceed after collapse before the
// expander is run.
const DefaultThreshold = 2

// Heuristic is the per-region compression policy: run the cheap Collapse first, then
// the Expander if more than Threshold blocks remain.  A nil compressor is skipped.
type Heuristic struct {
	Collapse  compressors.Compressor
	Expander  compressors.Compressor
	Threshold int
}

// DefaultHeuristic collapses uniform regions and greedily expands the rest.
func DefaultHeuristic() Heuristic {
	return Heuristic{
		Collapse:  compressors.SameDomain{},
		Expander:  compressors.GreedyExpander{},
		Threshold: DefaultThreshold,
	}
}

// RegionStats describes what compression did to one region.
type RegionStats struct {
	BlocksIn  int
	BlocksOut int
	Merges    int
	Collapsed bool
	Expanded  bool
}

// CompressRegion compresses a populated region in place.
func (h Heuristic) CompressRegion(r *grid.Region) RegionStats {
	stats := RegionStats{BlocksIn: r.NumBlocks()}
	if h.Collapse != nil {
		stats.Merges += h.Collapse.Compress(r)
	}
	if h.Expander != nil && r.NumBlocks() > h.Threshold {
		stats.Merges += h.Expander.Compress(r)
		stats.Expanded = true
	}
	stats.BlocksOut = r.NumBlocks()
	stats.Collapsed = r.Collapsed()
	return stats
}

func (h Heuristic) String() string {
	name := func(c compressors.Compressor) string {
		if c == nil {
			return "none"
		}
		return c.String()
	}
	return fmt.Sprintf("%s then %s above %d blocks", name(h.Collapse), name(h.Expander), h.Threshold)
}
