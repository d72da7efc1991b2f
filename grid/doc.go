/*
Package grid holds the spatial block model used to compress a labeled 3d grid.

A grid is cut into fixed-size Regions.  Every unit cell of a Region carries a domain
tag, and compression replaces runs of same-domain cells by larger axis-aligned Blocks.
A Region stores its Blocks in a dense slot array indexed by

	z*(size.x*size.y) + y*size.x + x

where each slot either holds the Block that starts at that coordinate or forwards to
the start slot of the Block covering it.  Merging blocks rewrites every absorbed slot
to forward to the new Block's start, so lookups never take more than one hop.
*/
package grid
