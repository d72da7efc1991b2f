package archive

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// Header is the first frame of an archive.
type Header struct {
	Version string
	Extents grid.Extents
}

// MarshalMsg implements msgp.Marshaler
func (z *Header) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "version")
	o = msgp.AppendString(o, z.Version)
	o = msgp.AppendString(o, "grid")
	o = appendPoint(o, z.Extents.Grid)
	o = msgp.AppendString(o, "region")
	o = appendPoint(o, z.Extents.Region)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Header) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for sz > 0 {
		sz--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "version":
			z.Version, bts, err = msgp.ReadStringBytes(bts)
		case "grid":
			z.Extents.Grid, bts, err = readPoint(bts)
		case "region":
			z.Extents.Region, bts, err = readPoint(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}

func (z *Header) Msgsize() (s int) {
	s = msgp.MapHeaderSize + msgp.StringPrefixSize + 7 + msgp.StringPrefixSize + len(z.Version) +
		msgp.StringPrefixSize + 4 + pointSize + msgp.StringPrefixSize + 6 + pointSize
	return
}

// Slice is the content of one slice frame.
type Slice struct {
	// Domains holds the names first seen in this slice, in tag order.
	Domains []string
	Regions []*grid.Region
}

// MarshalMsg implements msgp.Marshaler
func (z *Slice) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 2)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Domains)))
	for _, name := range z.Domains {
		o = msgp.AppendString(o, name)
	}
	o = msgp.AppendArrayHeader(o, uint32(len(z.Regions)))
	for _, r := range z.Regions {
		o = MarshalRegion(o, r)
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler.  Block tags are left as stored.
func (z *Slice) UnmarshalMsg(bts []byte) (o []byte, err error) {
	return z.unmarshal(bts, nil, nil)
}

// unmarshal decodes a slice.  If register is not nil it is called with the slice's
// domain names before any region is decoded, and every block tag is passed through
// remap if that is not nil.
func (z *Slice) unmarshal(bts []byte, register func([]string), remap func(grid.Tag) (grid.Tag, error)) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 2 {
		err = msgp.ArrayError{Wanted: 2, Got: sz}
		return
	}
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if uint64(sz) > uint64(len(bts)) {
		err = msgp.ErrShortBytes
		return
	}
	z.Domains = make([]string, sz)
	for i := range z.Domains {
		z.Domains[i], bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return
		}
	}
	if register != nil {
		register(z.Domains)
	}
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if uint64(sz) > uint64(len(bts)/minRegionSize) {
		err = msgp.ErrShortBytes
		return
	}
	z.Regions = make([]*grid.Region, sz)
	for i := range z.Regions {
		z.Regions[i], bts, err = unmarshalRegion(bts, remap)
		if err != nil {
			return
		}
	}
	o = bts
	return
}

func (z *Slice) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + msgp.ArrayHeaderSize
	for _, name := range z.Domains {
		s += msgp.StringPrefixSize + len(name)
	}
	s += msgp.ArrayHeaderSize
	for _, r := range z.Regions {
		s += RegionMsgsize(r)
	}
	return
}

// MarshalRegion appends the msgpack encoding of a region, [pos, size, blocks], where
// each block is [pos, size, tag].
func MarshalRegion(b []byte, r *grid.Region) []byte {
	blocks := r.Blocks()
	o := msgp.Require(b, msgp.ArrayHeaderSize+2*pointSize+msgp.ArrayHeaderSize+len(blocks)*blockSize)
	o = msgp.AppendArrayHeader(o, 3)
	o = appendPoint(o, r.Pos)
	o = appendPoint(o, r.Size)
	o = msgp.AppendArrayHeader(o, uint32(len(blocks)))
	for _, blk := range blocks {
		o = msgp.AppendArrayHeader(o, 3)
		o = appendPoint(o, blk.Pos)
		o = appendPoint(o, blk.Size)
		o = msgp.AppendUint32(o, uint32(blk.Domain))
	}
	return o
}

// UnmarshalRegion decodes a region written by MarshalRegion and returns the remaining
// bytes.  The blocks must tile the region.
func UnmarshalRegion(bts []byte) (*grid.Region, []byte, error) {
	return unmarshalRegion(bts, nil)
}

// RegionMsgsize returns an upper bound on the encoded size of a region.
func RegionMsgsize(r *grid.Region) int {
	return msgp.ArrayHeaderSize + 2*pointSize + msgp.ArrayHeaderSize + r.NumBlocks()*blockSize
}

const (
	pointSize = msgp.ArrayHeaderSize + 3*msgp.Int32Size
	blockSize = msgp.ArrayHeaderSize + 2*pointSize + msgp.Uint32Size

	// smallest possible encodings, used to bound array lengths read from a frame
	minPointSize  = 4
	minBlockSize  = 1 + 2*minPointSize + 1
	minRegionSize = 1 + 2*minPointSize + 1
)

func unmarshalRegion(bts []byte, remap func(grid.Tag) (grid.Tag, error)) (r *grid.Region, o []byte, err error) {
	var sz uint32
	var pos, size dvid.Point3d
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: sz}
		return
	}
	if pos, bts, err = readPoint(bts); err != nil {
		return
	}
	if size, bts, err = readPoint(bts); err != nil {
		return
	}
	if !size.Positive() {
		err = fmt.Errorf("region at %s has bad size %s", pos, size)
		return
	}
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if int64(sz) > size.Prod() {
		err = fmt.Errorf("region at %s of size %s claims %d blocks", pos, size, sz)
		return
	}
	if uint64(sz) > uint64(len(bts)/minBlockSize) {
		err = msgp.ErrShortBytes
		return
	}
	blocks := make([]grid.Block, sz)
	for i := range blocks {
		var n, tag uint32
		n, bts, err = msgp.ReadArrayHeaderBytes(bts)
		if err != nil {
			return
		}
		if n != 3 {
			err = msgp.ArrayError{Wanted: 3, Got: n}
			return
		}
		if blocks[i].Pos, bts, err = readPoint(bts); err != nil {
			return
		}
		if blocks[i].Size, bts, err = readPoint(bts); err != nil {
			return
		}
		if tag, bts, err = msgp.ReadUint32Bytes(bts); err != nil {
			return
		}
		blocks[i].Domain = grid.Tag(tag)
		if remap != nil {
			if blocks[i].Domain, err = remap(blocks[i].Domain); err != nil {
				return
			}
		}
	}
	if r, err = grid.NewRegionFromBlocks(size, pos, blocks); err != nil {
		return
	}
	o = bts
	return
}

func appendPoint(b []byte, p dvid.Point3d) []byte {
	b = msgp.AppendArrayHeader(b, 3)
	for _, v := range p {
		b = msgp.AppendInt32(b, v)
	}
	return b
}

func readPoint(bts []byte) (p dvid.Point3d, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: sz}
		return
	}
	for i := range p {
		p[i], bts, err = msgp.ReadInt32Bytes(bts)
		if err != nil {
			return
		}
	}
	o = bts
	return
}
