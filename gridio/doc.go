/*
Package gridio reads and writes grids as comma-separated text.

The first line declares the grid and region extents:

	# gx,gy,gz,rx,ry,rz

Every following record describes one block by absolute position, size and domain
name:

	x,y,z,sx,sy,sz,domain

Lines starting with '#' and blank lines are ignored.  Uncompressed input holds one
unit block per cell, sorted by z, then y, then x, so the grid can be read one
region-deep slice at a time.
*/
package gridio
