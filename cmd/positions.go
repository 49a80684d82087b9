/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"vault-ops/internal/logic"

	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "query vault idle value, strategy positions and the user's share of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := logic.NewPositionsLogic(commandContext(cmd), svcCtx).Query()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROTOCOL\tSTRATEGY\tVALUE\tUSER VALUE\tUPDATED")
		for _, s := range p.Strategies {
			if !s.Initialized {
				fmt.Fprintf(w, "%s\t%s\t-\t-\tnot initialized\n", s.Protocol, s.Strategy)
				continue
			}
			updated := time.Unix(int64(s.LastUpdatedTs), 0).UTC().Format(time.RFC3339)
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.Protocol, s.Strategy, s.Value, s.UserValue, updated)
		}
		fmt.Fprintf(w, "idle\t\t%d\t%d\t\n", p.Idle, p.UserIdle)
		fmt.Fprintf(w, "total\t\t%d\t%d\t\n", p.Total, p.UserTotal)
		if err := w.Flush(); err != nil {
			return err
		}
		if p.LpSupply > 0 {
			fmt.Printf("user lp %d of %d\n", p.UserLp, p.LpSupply)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}
