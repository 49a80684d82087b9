/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"vault-ops/internal/logic"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// vaultCmd groups the admin and user vault operations
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "vault admin and user operations",
}

var vaultInitCmd = &cobra.Command{
	Use:   "init",
	Short: "create a vault and register the lending adaptor (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).Init()
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var vaultUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "update vault fees, cap and start time (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).Update()
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var vaultHarvestFeeCmd = &cobra.Command{
	Use:   "harvest-fee",
	Short: "harvest accrued fees (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).HarvestFee()
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var vaultDepositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "deposit Amounts.Deposit of the asset (user)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).Deposit(svcCtx.Amounts.Deposit)
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var vaultRequestWithdrawCmd = &cobra.Command{
	Use:   "request-withdraw",
	Short: "request a withdrawal of Amounts.Withdraw (user)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := withdrawMode(cmd)
		if err != nil {
			return err
		}
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).RequestWithdraw(mode, svcCtx.Amounts.Withdraw)
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var vaultWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "withdraw a matured request (user)",
	RunE: func(cmd *cobra.Command, args []string) error {
		request, _ := cmd.Flags().GetBool("request")
		mode, err := withdrawMode(cmd)
		if err != nil {
			return err
		}
		out, err := logic.NewVaultLogic(commandContext(cmd), svcCtx).Withdraw(request, mode, svcCtx.Amounts.Withdraw)
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

func withdrawMode(cmd *cobra.Command) (logic.WithdrawMode, error) {
	lp, _ := cmd.Flags().GetBool("lp")
	all, _ := cmd.Flags().GetBool("all")
	switch {
	case lp && all:
		return 0, errors.New("--lp and --all are exclusive")
	case all:
		return logic.WithdrawAll, nil
	case lp:
		return logic.WithdrawLp, nil
	default:
		return logic.WithdrawAsset, nil
	}
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultInitCmd, vaultUpdateCmd, vaultHarvestFeeCmd, vaultDepositCmd, vaultRequestWithdrawCmd, vaultWithdrawCmd)

	for _, c := range []*cobra.Command{vaultRequestWithdrawCmd, vaultWithdrawCmd} {
		c.Flags().Bool("lp", false, "Amounts.Withdraw is in LP tokens")
		c.Flags().Bool("all", false, "withdraw the whole LP balance")
	}
	vaultWithdrawCmd.Flags().Bool("request", false, "request in the same transaction")
}
