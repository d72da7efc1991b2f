/*
Package server holds the configuration and the slice-streaming pipeline that turns an
uncompressed grid into a compressed one.

A Session owns the domain registry for one run.  Its pipeline reads one slice of
regions at a time, compresses the slice's regions in parallel, and writes the slice
before reading the next, so only one slice is ever held in memory.
*/
package server
