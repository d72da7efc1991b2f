/*
Package compressors holds the algorithms that reduce the number of blocks in a
grid.Region.  Compressors are stateless and only ever touch the region they are
given, so different regions may be compressed concurrently.

SameDomain collapses a region whose blocks all share one domain into a single block.
GreedyExpander grows each block by absorbing same-domain neighbors that sit flush
against one of its positive faces.  RunLength does the same along a single axis.
*/
package compressors
