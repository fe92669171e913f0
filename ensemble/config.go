package ensemble

import (
	"math"
	"runtime"
	"strings"

	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// Method is the ensemble method. It decides how each bag's view of the
// dataset is built.
type Method int

const (
	// Bagging trains every tree on a bootstrap sample with all attributes.
	Bagging Method = iota
	// RandomForest adds per-node attribute sampling to bagging.
	RandomForest
	// RandomSubspaces trains on all tuples with one attribute subset per bag.
	RandomSubspaces
	// BaggingPlusSubspaces combines a bootstrap sample with a subset per bag.
	BaggingPlusSubspaces
	// ExtraTrees trains on all tuples with per-node sampling and random splits.
	ExtraTrees
	// RandomForestNoBagging is RandomForest on all tuples.
	RandomForestNoBagging
)

var methodNames = []string{"Bagging", "RandomForest", "RandomSubspaces", "BaggingPlusSubspaces", "ExtraTrees", "RandomForestNoBagging"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// ParseMethod parses a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(name, s) {
			return Method(i), nil
		}
	}
	return 0, errors.NewValidationError("method", "unknown ensemble method", s)
}

// Bootstrap reports whether bags are bootstrap samples. Methods without
// bootstrap train on every tuple and have no out-of-bag tuples.
func (m Method) Bootstrap() bool {
	switch m {
	case Bagging, RandomForest, BaggingPlusSubspaces:
		return true
	default:
		return false
	}
}

// RankingMethod selects the feature ranking computed during a run.
type RankingMethod int

const (
	RankingNone RankingMethod = iota
	RankingPermutation
	RankingGenie3
	RankingSymbolic
	RankingRelief
)

var rankingNames = []string{"None", "Permutation", "Genie3", "Symbolic", "Relief"}

func (r RankingMethod) String() string {
	if r < 0 || int(r) >= len(rankingNames) {
		return "unknown"
	}
	return rankingNames[r]
}

// ParseRankingMethod parses a ranking name case-insensitively. "RForest" is
// accepted for permutation ranking.
func ParseRankingMethod(s string) (RankingMethod, error) {
	if strings.EqualFold(s, "RForest") {
		return RankingPermutation, nil
	}
	for i, name := range rankingNames {
		if strings.EqualFold(name, s) {
			return RankingMethod(i), nil
		}
	}
	return 0, errors.NewValidationError("ranking", "unknown ranking method", s)
}

// ParseVoting parses "majority" or "probability".
func ParseVoting(s string) (statistic.VotingMode, error) {
	switch strings.ToLower(s) {
	case "majority", "":
		return statistic.MajorityVote, nil
	case "probability", "probabilitydistribution":
		return statistic.ProbabilityVote, nil
	default:
		return 0, errors.NewValidationError("voting", "unknown voting mode", s)
	}
}

// Config is the read-only configuration of one induction run.
type Config struct {
	Method Method
	// Size is the number of bags.
	Size int
	// Threads bounds the number of bags trained at once.
	Threads int
	// BagFraction is the bag size as a fraction of the dataset size.
	BagFraction float64
	// SubspaceSize is the number of attributes sampled per node or per bag;
	// 0 selects floor(log2 d) + 1.
	SubspaceSize int

	Ranking         RankingMethod
	SymbolicWeights []float64
	// ReliefNeighbours and ReliefIterations parameterise Relief. Zero
	// iterations means one deterministic pass over every tuple.
	ReliefNeighbours int
	ReliefIterations int
	// SortRanking sorts the ranking by descending score.
	SortRanking bool

	Voting statistic.VotingMode
	// Streaming keeps running averages over the training tuples instead of
	// the trained models.
	Streaming bool
	// OOBEstimate enables out-of-bag error estimation.
	OOBEstimate bool
	// Checkpoints lists forest sizes at which the partial forest is evaluated.
	Checkpoints []int
	// ErrorMeasures names the measures used for OOB errors, checkpoints and
	// permutation ranking; empty selects the task default.
	ErrorMeasures []string
	Seed          int64
}

// DefaultConfig returns a RandomForest of 100 bags on all CPUs.
func DefaultConfig() Config {
	return Config{
		Method:           RandomForest,
		Size:             100,
		Threads:          runtime.NumCPU(),
		BagFraction:      1,
		Ranking:          RankingNone,
		SymbolicWeights:  []float64{0.5},
		ReliefNeighbours: 10,
		SortRanking:      true,
		Voting:           statistic.MajorityVote,
		Seed:             0,
	}
}

// Validate checks the configuration independent of any dataset.
func (c Config) Validate() error {
	if c.Method < Bagging || c.Method > RandomForestNoBagging {
		return errors.NewValidationError("method", "unknown ensemble method", int(c.Method))
	}
	if c.Size < 1 {
		return errors.NewValidationError("size", "must be at least 1", c.Size)
	}
	if c.Threads < 1 {
		return errors.NewValidationError("threads", "must be at least 1", c.Threads)
	}
	if !(c.BagFraction > 0 && c.BagFraction <= 1) {
		return errors.NewValidationError("bag_fraction", "must be in (0, 1]", c.BagFraction)
	}
	if c.SubspaceSize < 0 {
		return errors.NewValidationError("subspace_size", "must not be negative", c.SubspaceSize)
	}
	if c.Ranking < RankingNone || c.Ranking > RankingRelief {
		return errors.NewValidationError("ranking", "unknown ranking method", int(c.Ranking))
	}
	if c.Ranking == RankingSymbolic {
		if len(c.SymbolicWeights) == 0 {
			return errors.NewValidationError("symbolic_weights", "symbolic ranking needs at least one weight", c.SymbolicWeights)
		}
		for _, w := range c.SymbolicWeights {
			if !(w > 0) || math.IsInf(w, 0) {
				return errors.NewValidationError("symbolic_weights", "weights must be positive", w)
			}
		}
	}
	if c.Ranking == RankingRelief {
		if c.ReliefNeighbours < 1 {
			return errors.NewValidationError("relief_neighbours", "must be at least 1", c.ReliefNeighbours)
		}
		if c.ReliefIterations < 0 {
			return errors.NewValidationError("relief_iterations", "must not be negative", c.ReliefIterations)
		}
	}
	prev := 0
	for _, cp := range c.Checkpoints {
		if cp <= prev {
			return errors.NewValidationError("checkpoints", "must be positive and strictly ascending", c.Checkpoints)
		}
		if cp > c.Size {
			return errors.NewValidationError("checkpoints", "checkpoint beyond ensemble size", cp)
		}
		prev = cp
	}
	return nil
}

// subspaceSize returns the configured or default subspace size for d
// descriptive attributes.
func (c Config) subspaceSize(d int) int {
	if d <= 0 {
		return 0
	}
	k := c.SubspaceSize
	if k == 0 {
		k = int(math.Floor(math.Log2(float64(d)))) + 1
	}
	if k > d {
		k = d
	}
	return k
}
