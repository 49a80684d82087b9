/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"vault-ops/internal/logic"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"
)

// strategyCmd groups the per-protocol strategy operations. Each takes a protocol name or "all".
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "lending strategy operations (solend, marginfi, klend, drift or all)",
}

type strategyRun func(l *logic.StrategyLogic, name string) (*logic.Outcome, error)

// forEachProtocol runs fn per protocol, continuing past failures. The first error is returned.
func forEachProtocol(fn strategyRun) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		l := logic.NewStrategyLogic(commandContext(cmd), svcCtx)
		var firstErr error
		for _, name := range l.Names(args[0]) {
			out, err := fn(l, name)
			if err != nil {
				logx.Errorf("%s: %v", name, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			printOutcome(out)
		}
		return firstErr
	}
}

var strategyInitCmd = &cobra.Command{
	Use:   "init <protocol>",
	Short: "initialize strategies (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: forEachProtocol(func(l *logic.StrategyLogic, name string) (*logic.Outcome, error) {
		return l.Init(name)
	}),
}

var strategyInitDirectWithdrawCmd = &cobra.Command{
	Use:   "init-direct-withdraw <protocol>",
	Short: "allow direct withdrawals from strategies (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: forEachProtocol(func(l *logic.StrategyLogic, name string) (*logic.Outcome, error) {
		return l.InitDirectWithdraw(name)
	}),
}

var strategyDepositCmd = &cobra.Command{
	Use:   "deposit <protocol>",
	Short: "deposit Amounts.DepositPerStrategy into strategies (manager)",
	Args:  cobra.ExactArgs(1),
	RunE: forEachProtocol(func(l *logic.StrategyLogic, name string) (*logic.Outcome, error) {
		return l.Deposit(name, svcCtx.Amounts.DepositPerStrategy)
	}),
}

var strategyWithdrawCmd = &cobra.Command{
	Use:   "withdraw <protocol>",
	Short: "withdraw Amounts.WithdrawPerStrategy from strategies (manager)",
	Args:  cobra.ExactArgs(1),
	RunE: forEachProtocol(func(l *logic.StrategyLogic, name string) (*logic.Outcome, error) {
		return l.Withdraw(name, svcCtx.Amounts.WithdrawPerStrategy)
	}),
}

var strategyDirectWithdrawCmd = &cobra.Command{
	Use:   "direct-withdraw <protocol>",
	Short: "withdraw a request straight from strategies (user)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, _ := cmd.Flags().GetBool("request")
		return forEachProtocol(func(l *logic.StrategyLogic, name string) (*logic.Outcome, error) {
			return l.DirectWithdraw(name, request, svcCtx.Amounts.DirectWithdrawLpPerStrategy)
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyInitCmd, strategyInitDirectWithdrawCmd, strategyDepositCmd, strategyWithdrawCmd, strategyDirectWithdrawCmd)

	strategyDirectWithdrawCmd.Flags().Bool("request", false, "request Amounts.DirectWithdrawLpPerStrategy LP in the same transaction")
}
