package services

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// LockOrder returns the distinct ids in ascending byte order, which is also
// PostgreSQL's ordering for the uuid type. Every transaction that locks more
// than one product row must lock them in this order so overlapping
// transactions cannot wait on each other in a cycle.
func LockOrder(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}
