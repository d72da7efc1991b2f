package dvid

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Giga is 2^30, the unit for large byte limits.
const Giga = 1 << 30

// DefaultNumCPU is used when the number of logical CPUs cannot be determined.
const DefaultNumCPU = 4

// NumCPU is the number of workers used to compress the regions of a slice.
// It is set from the configuration or command line; 0 means use all logical CPUs.
var NumCPU int

// Workers returns the number of compression workers to use.
func Workers() int {
	if NumCPU > 0 {
		return NumCPU
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return DefaultNumCPU
}

// ConvertToAbsolute returns an absolute path for the given path, where relative
// paths are taken relative to the given base directory.
func ConvertToAbsolute(path, baseDir string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, path))
	if err != nil {
		return "", fmt.Errorf("could not make %q absolute: %v", path, err)
	}
	return abs, nil
}
