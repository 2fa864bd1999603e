// Package hash computes the 64-bit keys of the identifier index.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of an identifier string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
