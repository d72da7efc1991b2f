/*
Package engine applies compressors to the regions of a slice.

A Heuristic decides which compressors run on one region.  Run partitions the regions
of a slice into contiguous chunks and compresses each chunk in its own goroutine.
Regions share no state, so workers need no locking; Run waits for every worker before
returning and regions are modified in place, so the slice keeps its order.
*/
package engine
