package ranking

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// WriteText writes the description, a line of dashes and one
// "name<TAB>score" row per attribute. Multi-channel scores are written as
// "[s1, s2]".
func (r *Ranking) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(r.Description)
	bw.WriteByte('\n')
	bw.WriteString(strings.Repeat("-", len(r.Description)))
	bw.WriteByte('\n')
	for _, e := range r.Entries {
		bw.WriteString(e.Attribute)
		bw.WriteByte('\t')
		bw.WriteString(formatScores(e.Scores))
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write ranking")
}

func formatScores(scores []float64) string {
	if len(scores) == 1 {
		return formatScore(scores[0])
	}
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = formatScore(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type jsonEntry struct {
	AttributeName string `json:"attributeName"`
	Ordering      int    `json:"ordering"`
	Importance    any    `json:"importance"`
}

// WriteJSON writes the ranking as an array of
// {attributeName, ordering, importance} objects in entry order. importance
// is a number for single-channel rankings and an array otherwise.
func (r *Ranking) WriteJSON(w io.Writer) error {
	out := make([]jsonEntry, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = jsonEntry{AttributeName: e.Attribute, Ordering: r.Ranks[i]}
		if len(e.Scores) == 1 {
			out[i].Importance = e.Scores[0]
		} else {
			out[i].Importance = e.Scores
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "encode ranking")
}
