package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/blockmerge/archive"
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/grid"
)

// Key prefixes.  Region keys sort by z, then y, then x of the region position.
const (
	regionPrefix  byte = 'r'
	domainsKey    byte = 'd'
	extentsKey    byte = 'e'
	regionKeySize      = 13
)

func regionKey(pos dvid.Point3d) []byte {
	return append([]byte{regionPrefix}, pos.ZYXBytes()...)
}

// RegionStore keeps compressed regions in a Badger database so single regions can
// be looked up without scanning an output file.
type RegionStore struct {
	directory string
	bdp       *badger.DB
	compress  dvid.Compression
	checksum  dvid.Checksum
}

// Open opens or creates a store at the given directory.  An empty path opens an
// in-memory store.  Region values are serialized with the given compression.
func Open(path string, compress dvid.Compression, checksum dvid.Checksum) (*RegionStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{}).WithNumVersionsToKeep(1).WithSyncWrites(false)

	dvid.Infof("Opening badger region store @ %q\n", path)
	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening region store at %q: %w", path, err)
	}
	return &RegionStore{directory: path, bdp: bdp, compress: compress, checksum: checksum}, nil
}

func (s *RegionStore) String() string {
	if s.directory == "" {
		return "in-memory badger"
	}
	return fmt.Sprintf("badger @ %s", s.directory)
}

// Close closes the store.
func (s *RegionStore) Close() error {
	if s == nil || s.bdp == nil {
		return nil
	}
	err := s.bdp.Close()
	s.bdp = nil
	dvid.Infof("Closed %s\n", s)
	return err
}

// PutExtents records the grid extents.
func (s *RegionStore) PutExtents(ext grid.Extents) error {
	hdr := archive.Header{Version: archive.Version, Extents: ext}
	v, err := hdr.MarshalMsg(nil)
	if err != nil {
		return err
	}
	return s.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte{extentsKey}, v)
	})
}

// Extents returns the stored grid extents, or false if none were stored.
func (s *RegionStore) Extents() (grid.Extents, bool, error) {
	var hdr archive.Header
	v, err := s.get([]byte{extentsKey})
	if err != nil || v == nil {
		return hdr.Extents, false, err
	}
	if _, err := hdr.UnmarshalMsg(v); err != nil {
		return hdr.Extents, false, fmt.Errorf("decoding stored extents: %w", err)
	}
	return hdr.Extents, true, nil
}

// PutSlice stores the regions of one slice and the current domain table in a single
// write batch.  Block tags are stored as given, so the same registry must be used
// to read them.
func (s *RegionStore) PutSlice(regions []*grid.Region, domains *grid.Domains) error {
	wb := s.bdp.NewWriteBatch()
	defer wb.Cancel()

	names := domains.Names()
	table := msgp.AppendArrayHeader(nil, uint32(len(names)))
	for _, name := range names {
		table = msgp.AppendString(table, name)
	}
	if err := wb.Set([]byte{domainsKey}, table); err != nil {
		return err
	}

	var buf []byte
	for _, r := range regions {
		buf = archive.MarshalRegion(buf[:0], r)
		v, err := dvid.SerializeData(buf, s.compress, s.checksum)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", r, err)
		}
		if err := wb.Set(regionKey(r.Pos), v); err != nil {
			return fmt.Errorf("storing %s: %w", r, err)
		}
	}
	return wb.Flush()
}

// GetRegion returns the region at the given absolute position, or false if there is
// none.
func (s *RegionStore) GetRegion(pos dvid.Point3d) (*grid.Region, bool, error) {
	v, err := s.get(regionKey(pos))
	if err != nil || v == nil {
		return nil, false, err
	}
	r, err := decodeRegion(v)
	if err != nil {
		return nil, false, fmt.Errorf("region at %s: %w", pos, err)
	}
	return r, true, nil
}

// ForEach calls fn for every stored region in z, y, x order of position and stops at
// the first error.
func (s *RegionStore) ForEach(fn func(*grid.Region) error) error {
	return s.bdp.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{regionPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			if len(item.Key()) != regionKeySize {
				return fmt.Errorf("bad region key %x", item.Key())
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := decodeRegion(v)
			if err != nil {
				pos, _ := dvid.PointFromZYXBytes(item.Key()[1:])
				return fmt.Errorf("region at %s: %w", pos, err)
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// Domains returns a registry rebuilt from the stored domain table.
func (s *RegionStore) Domains() (*grid.Domains, error) {
	domains := grid.NewDomains()
	v, err := s.get([]byte{domainsKey})
	if err != nil || v == nil {
		return domains, err
	}
	sz, bts, err := msgp.ReadArrayHeaderBytes(v)
	if err != nil {
		return nil, fmt.Errorf("decoding domain table: %w", err)
	}
	for i := uint32(0); i < sz; i++ {
		var name string
		if name, bts, err = msgp.ReadStringBytes(bts); err != nil {
			return nil, fmt.Errorf("decoding domain table: %w", err)
		}
		domains.Tag(name)
	}
	return domains, nil
}

func (s *RegionStore) get(key []byte) ([]byte, error) {
	var v []byte
	err := s.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		v, err = item.ValueCopy(nil)
		return err
	})
	return v, err
}

func decodeRegion(v []byte) (*grid.Region, error) {
	data, _, err := dvid.DeserializeData(v)
	if err != nil {
		return nil, err
	}
	r, _, err := archive.UnmarshalRegion(data)
	return r, err
}

// badgerLogger sends badger's logging through the dvid logger, with badger's info
// messages demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{})   { dvid.Errorf("badger: "+format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { dvid.Warningf("badger: "+format, args...) }
func (badgerLogger) Infof(format string, args ...interface{})    { dvid.Debugf("badger: "+format, args...) }
func (badgerLogger) Debugf(format string, args ...interface{})   { dvid.Debugf("badger: "+format, args...) }
