package qstrdata

// HashFunc hashes the UTF-8 bytes of a string into a value that fits in
// bytesHash bytes.
type HashFunc func(data []byte, bytesHash int) uint32

// ComputeHash is the runtime's string hash: djb2 with xor, truncated to the
// field width. Zero means "not computed" to the runtime, so it maps to 1.
func ComputeHash(data []byte, bytesHash int) uint32 {
	h := uint64(5381)
	for _, b := range data {
		h = (h * 33) ^ uint64(b)
	}
	h &= (uint64(1) << (8 * uint(bytesHash))) - 1
	if h == 0 {
		h = 1
	}
	return uint32(h)
}
