package gridio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

var (
	ErrHeader     = errors.New("expected header '# gx,gy,gz,rx,ry,rz' of six non-negative integers")
	ErrFieldCount = errors.New("expected record 'x,y,z,sx,sy,sz,domain'")
)

// BlockRecord is one block as written in a file, with absolute position.
type BlockRecord struct {
	Pos    dvid.Point3d
	Size   dvid.Point3d
	Domain string
	Line   int
}

// End returns the exclusive end coordinate of the block.
func (b BlockRecord) End() dvid.Point3d {
	return b.Pos.Add(b.Size)
}

// BlockReader returns the records of a grid file one at a time without any check
// of their placement.  Use Reader to read uncompressed grids by slice.
type BlockReader struct {
	csv     *csv.Reader
	extents grid.Extents
	lines   int // lines consumed before the csv reader started
}

// NewBlockReader reads the header from r and returns a reader for its records.
func NewBlockReader(r io.Reader) (*BlockReader, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if strings.TrimSpace(header) == "" {
		return nil, &RecordError{Line: 1, Err: ErrHeader}
	}
	ext, err := ParseHeader(header)
	if err != nil {
		return nil, &RecordError{Line: 1, Record: strings.TrimSpace(header), Err: err}
	}

	c := csv.NewReader(br)
	c.Comment = '#'
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true
	c.ReuseRecord = true
	return &BlockReader{csv: c, extents: ext, lines: 1}, nil
}

// Extents returns the extents declared in the header.
func (r *BlockReader) Extents() grid.Extents {
	return r.extents
}

// Next returns the next record or io.EOF at the end of input.
func (r *BlockReader) Next() (BlockRecord, error) {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return BlockRecord{}, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return BlockRecord{}, &RecordError{Line: perr.Line + r.lines, Err: perr.Err}
		}
		return BlockRecord{}, err
	}
	line, _ := r.csv.FieldPos(0)
	line += r.lines
	rec := BlockRecord{Line: line}
	if len(fields) != 7 {
		return rec, &RecordError{Line: line, Record: strings.Join(fields, ","), Err: ErrFieldCount}
	}
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 32)
		if err != nil {
			return rec, &RecordError{Line: line, Record: strings.Join(fields, ","), Err: fmt.Errorf("field %d: %w", i+1, err)}
		}
		if i < 3 {
			rec.Pos[i] = int32(v)
		} else {
			rec.Size[i-3] = int32(v)
		}
	}
	rec.Domain = strings.Trim(fields[6], "' \t")
	return rec, nil
}

// ParseHeader parses the leading extents line of a grid file.
func ParseHeader(line string) (grid.Extents, error) {
	var ext grid.Extents
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "#") {
		return ext, ErrHeader
	}
	fields := strings.Split(line[1:], ",")
	if len(fields) != 6 {
		return ext, ErrHeader
	}
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil || v < 0 {
			return ext, ErrHeader
		}
		if i < 3 {
			ext.Grid[i] = int32(v)
		} else {
			ext.Region[i-3] = int32(v)
		}
	}
	if err := ext.Validate(); err != nil {
		return ext, err
	}
	return ext, nil
}
