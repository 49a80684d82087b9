/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"vault-ops/internal/config"
	"vault-ops/internal/logic"
	"vault-ops/internal/svc"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

var (
	cfgFile string
	svcCtx  *svc.ServiceContext
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "vault-ops",
	Short:         "vault-ops vault and strategy operations",
	Long:          `vault-ops builds vault and lending strategy transactions and submits them with simulated compute budgets and priority fees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error(err)
		logx.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "etc/config.yaml", "config file")
}

func setup() error {
	godotenv.Load()

	var c config.Config
	conf.MustLoad(cfgFile, &c, conf.UseEnv())
	logx.MustSetup(c.Log.LogConf)
	if err := c.Validate(); err != nil {
		return err
	}

	if !c.Banner.Disabled {
		figure.NewColorFigure(c.Banner.Text, c.Banner.FontName, c.Banner.Color, false).Print()
	}

	ctx, err := svc.NewServiceContext(c)
	if err != nil {
		return err
	}
	svcCtx = ctx
	return nil
}

func printOutcome(out *logic.Outcome) {
	fmt.Printf("%s: %s\n", out.Name, out.Signature)
	for name, address := range out.Outputs {
		fmt.Printf("  %s: %s\n", name, address)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
