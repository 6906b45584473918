package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/internal/export"
)

var exportLimit int

var exportCmd = &cobra.Command{
	Use:   "export <output.xlsx>",
	Short: "Write stored resolution records to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		parts, err := env.Store.ListParts(ctx, exportLimit, 0)
		if err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return eris.Wrapf(err, "export: create %s", args[0])
		}
		defer f.Close()

		if err := export.WriteWorkbook(f, parts); err != nil {
			return err
		}

		zap.L().Info("export finished", zap.Int("parts", len(parts)), zap.String("path", args[0]))
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "maximum rows to export")
	rootCmd.AddCommand(exportCmd)
}
