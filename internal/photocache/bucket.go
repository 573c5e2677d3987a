package photocache

import "math/bits"

// Original requests the unresized photo.
const Original = -1

// maxBucket is the largest size Bucket will round to.
const maxBucket = 1 << 30

// Bucket rounds size up to the nearest power of two. Sizes that are not
// positive, or that exceed the largest bucket, map to 0, which no variant
// can be generated for.
func Bucket(size int) int {
	if size <= 0 || size > maxBucket {
		return 0
	}
	if size == 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}
