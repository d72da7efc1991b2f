package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/blang/semver"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// Version is the archive format version written by this package.  Archives with a
// different major version cannot be read.
const Version = "1.0.0"

var currentVersion = semver.MustParse(Version)

// MaxFrameSize bounds the length of a single frame.
const MaxFrameSize = 1 * dvid.Giga

// Detect reports whether r holds an archive rather than a text grid, without
// consuming any input.  The header frame is always shorter than 64 KiB, so the high
// bytes of its length are zero, which never occurs in text.
func Detect(r *bufio.Reader) bool {
	b, err := r.Peek(4)
	return err == nil && b[2] == 0 && b[3] == 0
}

// Writer writes an archive.
type Writer struct {
	w        *bufio.Writer
	domains  *grid.Domains
	compress dvid.Compression
	checksum dvid.Checksum
	written  int // number of domain names already written
	lenBuf   [4]byte
}

// NewWriter returns a Writer using the given registry to name block tags.
func NewWriter(w io.Writer, domains *grid.Domains, compress dvid.Compression, checksum dvid.Checksum) *Writer {
	return &Writer{
		w:        bufio.NewWriter(w),
		domains:  domains,
		compress: compress,
		checksum: checksum,
	}
}

// WriteHeader writes the header frame.  It must be called once before WriteSlice.
func (w *Writer) WriteHeader(ext grid.Extents) error {
	hdr := Header{Version: Version, Extents: ext}
	body, err := hdr.MarshalMsg(nil)
	if err != nil {
		return err
	}
	if err := w.writeFrame(body); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteSlice writes one slice frame and flushes it.
func (w *Writer) WriteSlice(regions []*grid.Region) error {
	for _, r := range regions {
		for _, b := range r.Blocks() {
			if !w.domains.Valid(b.Domain) {
				return fmt.Errorf("archiving %s: domain tag %d not registered", r, b.Domain)
			}
		}
	}
	s := Slice{Domains: w.domains.Since(w.written), Regions: regions}
	body, err := s.MarshalMsg(nil)
	if err != nil {
		return err
	}
	if err := w.writeFrame(body); err != nil {
		return err
	}
	w.written += len(s.Domains)
	return w.w.Flush()
}

func (w *Writer) writeFrame(body []byte) error {
	payload, err := dvid.SerializeData(body, w.compress, w.checksum)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("archive frame of %d bytes exceeds maximum %d", len(payload), MaxFrameSize)
	}
	binary.LittleEndian.PutUint32(w.lenBuf[:], uint32(len(payload)))
	if _, err := w.w.Write(w.lenBuf[:]); err != nil {
		return err
	}
	_, err = w.w.Write(payload)
	return err
}

// Reader reads an archive slice by slice.
type Reader struct {
	r       *bufio.Reader
	hdr     Header
	domains *grid.Domains
	tags    []grid.Tag // archive tag -> caller tag
	slices  int
}

// NewReader reads and checks the header frame.  Domain names read from the archive
// are registered in domains.
func NewReader(r io.Reader, domains *grid.Domains) (*Reader, error) {
	ar := &Reader{r: bufio.NewReader(r), domains: domains}
	body, err := ar.readFrame()
	if err == io.EOF {
		return nil, fmt.Errorf("empty archive")
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	if _, err := ar.hdr.UnmarshalMsg(body); err != nil {
		return nil, fmt.Errorf("decoding archive header: %w", err)
	}
	v, err := semver.Parse(ar.hdr.Version)
	if err != nil {
		return nil, fmt.Errorf("bad archive version %q: %w", ar.hdr.Version, err)
	}
	if v.Major != currentVersion.Major {
		return nil, fmt.Errorf("archive version %s not readable by version %s", v, currentVersion)
	}
	if err := ar.hdr.Extents.Validate(); err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}
	return ar, nil
}

// Header returns the decoded header.
func (r *Reader) Header() Header {
	return r.hdr
}

// Extents returns the grid extents stored in the header.
func (r *Reader) Extents() grid.Extents {
	return r.hdr.Extents
}

// Next returns the regions of the next slice with block tags mapped onto the
// reader's registry, or io.EOF after the last slice.
func (r *Reader) Next() ([]*grid.Region, error) {
	body, err := r.readFrame()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading slice %d: %w", r.slices, err)
	}
	var s Slice
	register := func(names []string) {
		for _, name := range names {
			r.tags = append(r.tags, r.domains.Tag(name))
		}
	}
	remap := func(t grid.Tag) (grid.Tag, error) {
		if int(t) >= len(r.tags) {
			return 0, fmt.Errorf("block domain tag %d with only %d domains", t, len(r.tags))
		}
		return r.tags[t], nil
	}
	if _, err := s.unmarshal(body, register, remap); err != nil {
		return nil, fmt.Errorf("decoding slice %d: %w", r.slices, err)
	}
	r.slices++
	return s.Regions, nil
}

func (r *Reader) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated frame length: %w", err)
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds maximum %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("truncated frame of %d bytes: %w", n, err)
	}
	data, _, err := dvid.DeserializeData(payload)
	return data, err
}
