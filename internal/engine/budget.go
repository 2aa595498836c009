package engine

import (
	"encoding/json"
	"slices"
)

// Measured is a content item that carries an optional heavy payload
// (transcript or full body text).
type Measured interface {
	PayloadLen() int
}

// SerializedLen returns the byte length of the JSON serialization of items.
// This is the size compared against a caller-supplied character budget.
func SerializedLen[T any](items []T) int {
	data, err := json.Marshal(items)
	if err != nil {
		return 0
	}
	return len(data)
}

// TrimToBudget evicts items until the serialized result fits under budget.
// Each round removes the single item with the largest heavy payload; relative
// order of the survivors is preserved. When no remaining item has a positive
// payload the loop stops, even if the result still exceeds the budget — there
// is nothing heavy left to evict and dropping payload-less items would not
// converge meaningfully. budget <= 0 means no trimming.
func TrimToBudget[T Measured](items []T, budget int) []T {
	if budget <= 0 {
		return items
	}
	for len(items) > 0 && SerializedLen(items) > budget {
		idx := -1
		max := 0
		for i, item := range items {
			if l := item.PayloadLen(); l > max {
				max = l
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		items = slices.Delete(items, idx, idx+1)
	}
	return items
}
