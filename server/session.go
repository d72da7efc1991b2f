package server

import (
	"context"
	"fmt"
	"io"

	"github.com/DmitriyVTitov/size"
	humanize "github.com/dustin/go-humanize"

	"github.com/janelia-flyem/blockmerge/archive"
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/engine"
	"github.com/janelia-flyem/blockmerge/grid"
	"github.com/janelia-flyem/blockmerge/gridio"
	"github.com/janelia-flyem/blockmerge/storage"
)

// Session is one compression run.  Its domain registry lives as long as the session
// and is shared by every slice read and written.
type Session struct {
	Config  Config
	Domains *grid.Domains
	Stats   engine.Stats
}

// NewSession returns a session with an empty domain registry.
func NewSession(c Config) *Session {
	return &Session{Config: c, Domains: grid.NewDomains()}
}

// sliceWriter is the destination of compressed slices.
type sliceWriter interface {
	WriteHeader(grid.Extents) error
	WriteSlice([]*grid.Region) error
}

type csvWriter struct {
	*gridio.Writer
}

func (w csvWriter) WriteSlice(regions []*grid.Region) error {
	return w.WriteRegions(regions)
}

func (s *Session) newWriter(out io.Writer) (sliceWriter, error) {
	switch s.Config.Output.Format {
	case FormatCSV, "":
		return csvWriter{gridio.NewWriter(out, s.Domains)}, nil
	case FormatArchive:
		compress, checksum, err := s.Config.Serialization()
		if err != nil {
			return nil, err
		}
		return archive.NewWriter(out, s.Domains, compress, checksum), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", s.Config.Output.Format)
	}
}

// Compress reads an uncompressed grid from in and writes the compressed grid to out,
// one slice at a time.  If a store is configured, every compressed region is also
// put there.  Any error aborts the run and leaves out incomplete.
func (s *Session) Compress(ctx context.Context, in io.Reader, out io.Writer) error {
	h, err := s.Config.Heuristic()
	if err != nil {
		return err
	}
	workers := s.Config.Compress.NumCPU
	if workers <= 0 {
		workers = dvid.Workers()
	}

	reader, err := gridio.NewReader(in, s.Domains)
	if err != nil {
		return err
	}
	ext := reader.Extents()
	writer, err := s.newWriter(out)
	if err != nil {
		return err
	}
	if err := writer.WriteHeader(ext); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var store *storage.RegionStore
	if s.Config.Output.Store != "" {
		compress, checksum, err := s.Config.Serialization()
		if err != nil {
			return err
		}
		if store, err = storage.Open(s.Config.Output.Store, compress, checksum); err != nil {
			return err
		}
		defer store.Close()
		if err := store.PutExtents(ext); err != nil {
			return fmt.Errorf("storing extents: %w", err)
		}
	}

	dvid.Infof("Compressing %s in %d slices using %s with %d workers\n", ext, ext.NumSlices(), h, workers)
	runLog := dvid.NewTimeLog()
	for {
		timedLog := dvid.NewTimeLog()
		regions, err := reader.ReadSlice()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		slice := reader.Slice()
		dvid.Debugf("Read slice %d of %d: %d regions, %s resident\n", slice, ext.NumSlices(), len(regions),
			humanize.Bytes(uint64(size.Of(regions))))

		var before [][]grid.Tag
		if s.Config.Compress.Check {
			before = make([][]grid.Tag, len(regions))
			for i, r := range regions {
				before[i] = r.CellDomains()
			}
		}
		stats, err := engine.Run(ctx, regions, h, workers)
		if err != nil {
			return fmt.Errorf("slice %d: %w", slice, err)
		}
		if s.Config.Compress.Check {
			for i, r := range regions {
				if err := checkRegion(r, before[i]); err != nil {
					return fmt.Errorf("slice %d: %w", slice, err)
				}
			}
		}
		if err := writer.WriteSlice(regions); err != nil {
			return fmt.Errorf("writing slice %d: %w", slice, err)
		}
		if store != nil {
			if err := store.PutSlice(regions, s.Domains); err != nil {
				return fmt.Errorf("storing slice %d: %w", slice, err)
			}
		}
		s.Stats.Merge(stats)
		timedLog.Debugf("Slice %d: %s", slice, stats)
	}
	runLog.Infof("Compressed %s: %s, %d domains", ext, s.Stats, s.Domains.Len())
	if secs := runLog.Elapsed().Seconds(); secs > 0 {
		dvid.Debugf("Compressed %s cells/sec\n", humanize.Comma(int64(float64(s.Stats.BlocksIn)/secs)))
	}
	return nil
}

// checkRegion validates a compressed region's structure and that every cell kept the
// domain it had before compression.
func checkRegion(r *grid.Region, before []grid.Tag) error {
	if err := r.Check(); err != nil {
		return err
	}
	after := r.CellDomains()
	for i, tag := range before {
		if after[i] != tag {
			return fmt.Errorf("%s: cell %d changed domain from %d to %d", r, i, tag, after[i])
		}
	}
	return nil
}

// Unpack writes an archive read from in as text to out.
func (s *Session) Unpack(in io.Reader, out io.Writer) error {
	ar, err := archive.NewReader(in, s.Domains)
	if err != nil {
		return err
	}
	w := gridio.NewWriter(out, s.Domains)
	if err := w.WriteHeader(ar.Extents()); err != nil {
		return err
	}
	dvid.Infof("Unpacking archive version %s of %s\n", ar.Header().Version, ar.Extents())
	timedLog := dvid.NewTimeLog()
	var slices, blocks int
	for {
		regions, err := ar.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.WriteRegions(regions); err != nil {
			return err
		}
		slices++
		for _, r := range regions {
			blocks += r.NumBlocks()
		}
	}
	timedLog.Infof("Unpacked %d slices, %s blocks", slices, humanize.Comma(int64(blocks)))
	return nil
}

// Dump writes every region of a store as text to out, ordered by region position,
// or only the regions at the given absolute positions if any are given.  The
// session's registry is replaced by the store's domain table.
func (s *Session) Dump(store *storage.RegionStore, out io.Writer, at ...dvid.Point3d) error {
	ext, found, err := store.Extents()
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s holds no grid", store)
	}
	if s.Domains, err = store.Domains(); err != nil {
		return err
	}
	w := gridio.NewWriter(out, s.Domains)
	if err := w.WriteHeader(ext); err != nil {
		return err
	}
	var regions int
	for _, pos := range at {
		r, found, err := store.GetRegion(pos)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s has no region at %s", store, pos)
		}
		regions++
		if err := w.WriteRegions([]*grid.Region{r}); err != nil {
			return err
		}
	}
	if len(at) == 0 {
		err = store.ForEach(func(r *grid.Region) error {
			regions++
			return w.WriteRegions([]*grid.Region{r})
		})
		if err != nil {
			return err
		}
	}
	dvid.Infof("Dumped %d regions of %s from %s\n", regions, ext, store)
	return nil
}
