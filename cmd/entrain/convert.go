package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/synth"
	"github.com/satindergrewal/entrain/internal/track"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a track file as JSON or YAML",
	Long: `Load a track and save it again, choosing the format from the output
extension (.yaml/.yml for YAML, anything else JSON). Missing settings
are filled with their defaults.

Example:
  entrain convert session.json session.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := track.Load(args[0])
		if err != nil {
			return err
		}
		if err := track.Save(t, args[1]); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"from": args[0], "to": args[1]}).Info("Track converted")
		return nil
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the voice kinds a step can use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range synth.Kinds() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}
