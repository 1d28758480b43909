package main

import (
	"errors"

	"github.com/spf13/cobra"

	"captionize/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, directories, and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.header("Preflight")
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				printer.line(result.Name, kind, result.Detail)
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
