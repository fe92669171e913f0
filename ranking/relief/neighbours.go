package relief

// Neighbour is a candidate neighbour: a tuple index and its distance to the
// sampled tuple.
type Neighbour struct {
	Index    int
	Distance float64
}

// NeighbourSet keeps the k nearest candidates seen so far, sorted by
// descending distance so the farthest member is always first.
type NeighbourSet struct {
	k     int
	items []Neighbour
}

// NewNeighbourSet returns an empty set bounded to k members.
func NewNeighbourSet(k int) *NeighbourSet {
	return &NeighbourSet{k: k, items: make([]Neighbour, 0, k)}
}

// Insert offers a candidate. Until the set is full every candidate is
// placed at its sorted position. Afterwards a candidate only enters when it
// is strictly closer than the farthest member, which it displaces. Reports
// whether the candidate was kept.
func (s *NeighbourSet) Insert(index int, distance float64) bool {
	if s.k <= 0 {
		return false
	}
	if len(s.items) < s.k {
		pos := len(s.items)
		for pos > 0 && s.items[pos-1].Distance < distance {
			pos--
		}
		s.items = append(s.items, Neighbour{})
		copy(s.items[pos+1:], s.items[pos:])
		s.items[pos] = Neighbour{Index: index, Distance: distance}
		return true
	}
	if distance >= s.items[0].Distance {
		return false
	}
	j := 1
	for ; j < s.k && distance < s.items[j].Distance; j++ {
		s.items[j-1] = s.items[j]
	}
	s.items[j-1] = Neighbour{Index: index, Distance: distance}
	return true
}

// Len returns the number of members.
func (s *NeighbourSet) Len() int { return len(s.items) }

// Items returns the members, farthest first. The slice is owned by the set.
func (s *NeighbourSet) Items() []Neighbour { return s.items }

// Reset empties the set for reuse.
func (s *NeighbourSet) Reset() { s.items = s.items[:0] }
