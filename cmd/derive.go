/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"vault-ops/internal/logic"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "print every derived address as yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := logic.NewDeriveLogic(commandContext(cmd), svcCtx).Derive()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(set)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}
