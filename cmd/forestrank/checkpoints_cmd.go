package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/forestrank/store"
)

func checkpointsCmd(rc *rootCmdConfig) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "checkpoints [run-id]",
		Short: "List stored runs, or print the checkpoints of one run as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(path)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := s.Runs()
				if err != nil {
					return err
				}
				for _, id := range runs {
					if _, err := out.Write([]byte(id + "\n")); err != nil {
						return err
					}
				}
				return nil
			}

			cps, err := s.Checkpoints(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cps)
		},
	}
	cmd.Flags().StringVar(&path, "store", "forestrank.db", "BoltDB checkpoint file")
	return cmd
}
