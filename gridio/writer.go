package gridio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/janelia-flyem/blockmerge/grid"
)

// Writer writes regions as block records.
type Writer struct {
	csv     *csv.Writer
	domains *grid.Domains
	record  []string
}

// NewWriter returns a Writer that resolves tags through domains.
func NewWriter(w io.Writer, domains *grid.Domains) *Writer {
	return &Writer{csv: csv.NewWriter(w), domains: domains, record: make([]string, 7)}
}

// WriteHeader writes the extents line.
func (w *Writer) WriteHeader(ext grid.Extents) error {
	header := []string{
		fmt.Sprintf("# %d", ext.Grid[0]), strconv.Itoa(int(ext.Grid[1])), strconv.Itoa(int(ext.Grid[2])),
		strconv.Itoa(int(ext.Region[0])), strconv.Itoa(int(ext.Region[1])), strconv.Itoa(int(ext.Region[2])),
	}
	if err := w.csv.Write(header); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// WriteRegions writes every block of each region with absolute coordinates, all
// blocks of one region before any of the next, and flushes.
func (w *Writer) WriteRegions(regions []*grid.Region) error {
	for _, r := range regions {
		for _, b := range r.Blocks() {
			name, err := w.domains.Name(b.Domain)
			if err != nil {
				return fmt.Errorf("writing %s: %w", r, err)
			}
			pos := b.Pos.Add(r.Pos)
			for i := 0; i < 3; i++ {
				w.record[i] = strconv.Itoa(int(pos[i]))
				w.record[i+3] = strconv.Itoa(int(b.Size[i]))
			}
			w.record[6] = name
			if err := w.csv.Write(w.record); err != nil {
				return err
			}
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}
