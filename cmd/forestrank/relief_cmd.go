package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/ranking/relief"
)

var reliefFlags = map[string]string{
	"data.path":                 "input",
	"data.targets":              "target",
	"ranking.relief_neighbours": "neighbours",
	"ranking.relief_iterations": "iterations",
	"output.format":             "format",
	"output.path":               "output",
	"output.chart":              "chart",
}

func reliefCmd(rc *rootCmdConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relief",
		Short: "Rank attributes with Relief without training an ensemble",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := rc.load(cmd, reliefFlags)
			if err != nil {
				return err
			}
			data, err := loadDataset(f)
			if err != nil {
				return err
			}

			iterations := f.Ranking.Iterations
			if iterations == 0 {
				iterations = data.Len()
			}
			r := relief.New(f.Ranking.Neighbours, iterations, relief.WithLogger(log.GetLoggerWithName("ranking.relief")))
			rec, err := r.Rank(data)
			if err != nil {
				return err
			}
			return writeRanking(cmd, rec.Ranking(r.Description(), 1, f.Ranking.Sort), f.Output)
		},
	}
	flags := cmd.Flags()
	flags.StringP("input", "i", "", "path to the input CSV file with a header row")
	flags.StringSliceP("target", "t", nil, "target column(s)")
	flags.IntP("neighbours", "k", 10, "nearest hits and misses per sampled tuple")
	flags.Int("iterations", 0, "sampled tuples (0: every tuple once)")
	flags.String("format", "text", "ranking output format: text or json")
	flags.StringP("output", "o", "", "ranking output file (default: stdout)")
	flags.String("chart", "", "write a bar chart of the ranking to this file")
	return cmd
}
