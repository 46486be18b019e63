package simdscan

import "unsafe"

// unsafeBytesToString reinterprets b as a string without copying. Valid only
// as long as the caller doesn't mutate or free the backing array, which
// holds for mmap-backed, read-only sources.
func unsafeBytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
