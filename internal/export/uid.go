package export

import (
	"fmt"
	"hash/fnv"
)

// uidRoot is the UUID-derived DICOM root (2.25) under which
// deterministic UIDs are minted.
const uidRoot = "2.25"

// deterministicUID derives a stable UID from a seed string, so the same
// dataset always exports with the same identifiers.
func deterministicUID(seed string) string {
	h := fnv.New128a()
	h.Write([]byte(seed))
	sum := h.Sum(nil)

	// first 15 bytes as decimal digits, the UID stays under 64 characters
	var hi, lo uint64
	for _, b := range sum[:7] {
		hi = hi<<8 | uint64(b)
	}
	for _, b := range sum[7:15] {
		lo = lo<<8 | uint64(b)
	}
	// no leading zero in the component
	hi = hi%9_000_000_000_000_000 + 1_000_000_000_000_000
	return fmt.Sprintf("%s.%d%020d", uidRoot, hi, lo)
}
