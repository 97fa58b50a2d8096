// Package batch splits work into fixed-size chunks, for example to stay
// within the item limits of AWS batch APIs.
package batch

import "slices"

// Batch splits items into consecutive chunks of size elements. The last chunk
// holds the remainder. An empty input yields no chunks. A size below 1 yields
// a single chunk holding every item.
//
// Chunks share the backing array of items.
func Batch[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if size < 1 {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for chunk := range slices.Chunk(items, size) {
		out = append(out, chunk)
	}
	return out
}
