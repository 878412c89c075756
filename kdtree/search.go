package kdtree

import "math"

// searcher holds the per-query state. stack is shared by nested subtree
// searches: each call pushes above the caller's entries and pops back down to
// its own base before returning.
type searcher struct {
	store *Store
	nodes []node
	query []float64
	stack []handle
}

// nearest runs the branch-and-bound search over the subtree rooted at h, never
// exploring a sibling subtree that lies at least min(best, inherited) away from
// the splitting plane. found is false only when h is absent.
func (s *searcher) nearest(h handle, inherited float64) (best handle, bestDist float64, found bool) {
	if h == nilHandle {
		return nilHandle, 0, false
	}

	base := len(s.stack)
	for cur := h; cur != nilHandle; {
		s.stack = append(s.stack, cur)
		n := &s.nodes[cur]
		if s.query[n.split] < s.store.coord(int(n.pos), int(n.split)) {
			cur = n.left
		} else {
			cur = n.right
		}
	}

	best = s.stack[len(s.stack)-1]
	bestDist = s.distance(best)
	for len(s.stack) > base {
		cur := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		n := &s.nodes[cur]

		if d := s.distance(cur); d < bestDist {
			best, bestDist = cur, d
		}

		offset := s.query[n.split] - s.store.coord(int(n.pos), int(n.split))
		bound := math.Min(bestDist, inherited)
		if bound <= math.Abs(offset) {
			continue
		}
		// Descent went right for offset >= 0, so the unexplored side is the left.
		sibling := n.right
		if offset >= 0 {
			sibling = n.left
		}
		if sub, subDist, ok := s.nearest(sibling, bound); ok && subDist < bestDist {
			best, bestDist = sub, subDist
		}
	}
	return best, bestDist, true
}

func (s *searcher) distance(h handle) float64 {
	return Euclidean(s.query, s.store.row(int(s.nodes[h].pos)))
}
