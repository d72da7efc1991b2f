package engine

import (
	"fmt"

	humanize "github.com/dustin/go-humanize"
)

// Stats accumulates region statistics over one or more slices.
type Stats struct {
	Regions   int
	BlocksIn  int64
	BlocksOut int64
	Merges    int64
	Collapsed int
	Expanded  int
}

// Add accumulates the stats of one region.
func (s *Stats) Add(r RegionStats) {
	s.Regions++
	s.BlocksIn += int64(r.BlocksIn)
	s.BlocksOut += int64(r.BlocksOut)
	s.Merges += int64(r.Merges)
	if r.Collapsed {
		s.Collapsed++
	}
	if r.Expanded {
		s.Expanded++
	}
}

// Merge accumulates another Stats.
func (s *Stats) Merge(o Stats) {
	s.Regions += o.Regions
	s.BlocksIn += o.BlocksIn
	s.BlocksOut += o.BlocksOut
	s.Merges += o.Merges
	s.Collapsed += o.Collapsed
	s.Expanded += o.Expanded
}

// Ratio returns blocks in per block out, or 0 if nothing was compressed.
func (s Stats) Ratio() float64 {
	if s.BlocksOut == 0 {
		return 0
	}
	return float64(s.BlocksIn) / float64(s.BlocksOut)
}

func (s Stats) String() string {
	return fmt.Sprintf("%s regions (%s collapsed, %s expanded): %s blocks -> %s blocks (%.2fx) in %s merges",
		humanize.Comma(int64(s.Regions)), humanize.Comma(int64(s.Collapsed)), humanize.Comma(int64(s.Expanded)),
		humanize.Comma(s.BlocksIn), humanize.Comma(s.BlocksOut), s.Ratio(), humanize.Comma(s.Merges))
}
