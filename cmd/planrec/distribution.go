package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"planrec/engine"

	"github.com/spf13/cobra"
)

var distributionCmd = &cobra.Command{
	Use:   "distribution <patient-id>",
	Short: "Prints how many rules each of a patient's plans satisfies.",
	Long: `Reads the patient's rule edges from the graph store and prints the
rule-count distribution as JSON. With --reset the rule edges are removed
instead, so the next process-plans run starts clean. Candidate (CONSIDERS)
edges are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid patient id %q", args[0])
		}
		reset, _ := cmd.Flags().GetBool("reset")

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openGraph(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		svc := engine.NewService(nil, store, logger)
		if reset {
			n, err := svc.ResetRules(ctx, id)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d rule edges for patient %d\n", n, id)
			return nil
		}

		d, err := svc.Distribution(ctx, id)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	distributionCmd.Flags().Bool("reset", false, "Remove the patient's rule edges")
}
