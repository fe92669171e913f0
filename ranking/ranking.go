package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is the importance of one attribute, one score per channel.
type Entry struct {
	Attribute string
	Scores    []float64
}

// Ranking is a finished importance ranking.
type Ranking struct {
	Description string
	Entries     []Entry
	// Ranks holds the competition rank of each entry (1 for the best, equal
	// scores share a rank), aligned with Entries.
	Ranks []int
}

// NewRanking ranks entries by their first channel, highest first. When sorted
// is false the entries keep their given (schema) order; ranks are computed
// either way.
func NewRanking(description string, entries []Entry, sorted bool) *Ranking {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return primary(entries[order[a]]) > primary(entries[order[b]])
	})

	ranks := make([]int, len(entries))
	for pos, i := range order {
		if pos > 0 && primary(entries[i]) == primary(entries[order[pos-1]]) {
			ranks[i] = ranks[order[pos-1]]
			continue
		}
		ranks[i] = pos + 1
	}

	r := &Ranking{Description: description}
	if !sorted {
		r.Entries = entries
		r.Ranks = ranks
		return r
	}
	r.Entries = make([]Entry, len(entries))
	r.Ranks = make([]int, len(entries))
	for pos, i := range order {
		r.Entries[pos] = entries[i]
		r.Ranks[pos] = ranks[i]
	}
	return r
}

func primary(e Entry) float64 {
	if len(e.Scores) == 0 {
		return 0
	}
	return e.Scores[0]
}

// Lookup returns the entry of the named attribute.
func (r *Ranking) Lookup(attribute string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Attribute == attribute {
			return e, true
		}
	}
	return Entry{}, false
}

// Genie3Description is the header of a Genie3 ranking.
func Genie3Description() string {
	return "Ranking via Random Forests: Genie3"
}

// SymbolicDescription is the header of a symbolic ranking.
func SymbolicDescription(weights []float64) string {
	return fmt.Sprintf("Ranking via Random Forests: Symbolic with weights %v", weights)
}

// PermutationDescription is the header of a permutation ranking.
func PermutationDescription(measures []string) string {
	return "Ranking via Random Forests: RForest for error measure(s) " + strings.Join(measures, ", ")
}

// ReliefDescription is the header of a Relief ranking.
func ReliefDescription(neighbours, iterations int) string {
	return fmt.Sprintf("Ranking via Relief: %d neighbours and %d iterations", neighbours, iterations)
}
