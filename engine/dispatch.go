package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// Run compresses every region with the heuristic using up to the given number of
// workers, each handling a contiguous chunk of regions.  It blocks until all workers
// finish.  A panic in any worker is returned as an error and fails the whole call;
// the regions must then be considered invalid.  Workers stop between regions once
// ctx is done.
func Run(ctx context.Context, regions []*grid.Region, h Heuristic, workers int) (Stats, error) {
	var total Stats
	if len(regions) == 0 {
		return total, nil
	}
	if workers < 1 {
		workers = dvid.Workers()
	}
	chunkSize := (len(regions) + workers - 1) / workers

	numChunks := (len(regions) + chunkSize - 1) / chunkSize
	chunkStats := make([]Stats, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		c := c
		begin := c * chunkSize
		end := begin + chunkSize
		if end > len(regions) {
			end = len(regions)
		}
		g.Go(func() error {
			return compressChunk(gctx, regions[begin:end], h, &chunkStats[c])
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	for _, s := range chunkStats {
		total.Merge(s)
	}
	return total, nil
}

func compressChunk(ctx context.Context, regions []*grid.Region, h Heuristic, stats *Stats) (err error) {
	var cur *grid.Region
	defer func() {
		if e := recover(); e != nil {
			dvid.Criticalf("panic compressing %s: %v\n%s", cur, e, debug.Stack())
			err = fmt.Errorf("compressing %s: %v", cur, e)
		}
	}()
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur = r
		stats.Add(h.CompressRegion(r))
	}
	return nil
}
