package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importDebug bool

var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Resolve every part number in an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "import: read %s", args[0])
		}

		report, err := env.Importer.Run(ctx, data, importDebug)
		if err != nil {
			return err
		}

		zap.L().Info("import finished",
			zap.Int("resolved", len(report.Results)),
			zap.Int("skipped", report.Skipped),
			zap.Int("errors", len(report.Errors)),
		)
		for _, rowErr := range report.Errors {
			zap.L().Warn("row failed",
				zap.Int("line", rowErr.Line),
				zap.String("message", rowErr.Message),
			)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDebug, "debug", false, "persist match debug logs")
	rootCmd.AddCommand(importCmd)
}
