package compressors

import (
	"fmt"
	"strings"

	"github.com/janelia-flyem/blockmerge/grid"
)

// Compressor mutates a populated region in place to cover it with fewer blocks.
// Compress returns the number of merges performed, which is zero once the region
// is at the compressor's fixed point.
type Compressor interface {
	Compress(r *grid.Region) int
	String() string
}

// None leaves regions unchanged.
type None struct{}

func (None) Compress(*grid.Region) int { return 0 }

func (None) String() string { return "none" }

// Names lists the names accepted by New.
var Names = []string{"samedomain", "greedy", "runlength-x", "runlength-y", "runlength-z", "none"}

// New returns the compressor with the given name.
func New(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "samedomain", "collapse":
		return SameDomain{}, nil
	case "greedy", "":
		return GreedyExpander{}, nil
	case "runlength-x":
		return RunLength{Axis: 0}, nil
	case "runlength-y":
		return RunLength{Axis: 1}, nil
	case "runlength-z":
		return RunLength{Axis: 2}, nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor %q, expected one of %s", name, strings.Join(Names, ", "))
	}
}
