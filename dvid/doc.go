/*
Package dvid provides types, constants, and functions that have no other dependencies
and can be used by all packages within blockmerge.  This includes 3d points, the
leveled logging facade, and the serialization formats used when compressed grids are
written to archives or key-value stores.  Since these elements are used at multiple
layers, we separate them here.
*/
package dvid
