/*
Package storage keeps compressed regions in a Badger key-value store.

Keys are a one-byte prefix followed by an optional region position:

	'r' + z,y,x   one compressed region, serialized with dvid.SerializeData
	'd'           the domain table as a msgpack array of names in tag order
	'e'           the grid extents

Positions are big-endian with the sign bit flipped, so iterating over region keys
visits regions in z, then y, then x order.
*/
package storage
