/*
Package archive stores compressed grids in a compact binary form.

An archive is a sequence of frames.  Each frame is a 4-byte little-endian length
followed by a payload produced by dvid.SerializeData, so each frame carries its own
compression and optional checksum.  The first frame is a msgpack map holding the
format version and grid extents.  Every following frame holds one slice: the domain
names first seen in that slice, then the slice's regions with their blocks.

Block domains are stored as tags.  The tags of an archive are assigned in the order
names appear across its frames, so a Reader rebuilds the writer's domain table as it
goes and maps archive tags onto the caller's registry.
*/
package archive
