package main

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/forestrank/config"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/ranking"
)

func writeRanking(cmd *cobra.Command, r *ranking.Ranking, out config.OutputConfig) error {
	var w io.Writer = cmd.OutOrStdout()
	if out.Path != "" {
		f, err := os.Create(out.Path)
		if err != nil {
			return errors.Wrapf(err, "create %s", out.Path)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()
		w = bw
	}

	var err error
	switch out.Format {
	case "json":
		err = r.WriteJSON(w)
	default:
		err = r.WriteText(w)
	}
	if err != nil {
		return err
	}

	if out.Chart != "" {
		return r.WriteBarChart(out.Chart, 0)
	}
	return nil
}
