package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Itecs-company/Alias/internal/model"
)

var (
	resolveHint  string
	resolveDebug bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <part-number>",
	Short: "Resolve the manufacturer for a single part number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.ResolveOne(ctx, model.PartRequest{
			PartNumber:       args[0],
			ManufacturerHint: resolveHint,
		}, resolveDebug)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveHint, "hint", "", "suspected manufacturer name")
	resolveCmd.Flags().BoolVar(&resolveDebug, "debug", false, "include match debug log in the output")
	rootCmd.AddCommand(resolveCmd)
}
