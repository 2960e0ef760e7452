package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "custody",
		Short:         "Custody journal CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.addr, "addr", envOr("CUSTODY_ADDR", "localhost:8080"), "custodyd gRPC address")
	rootCmd.PersistentFlags().StringVar(&ctx.token, "token", os.Getenv("CUSTODY_TOKEN"), "bearer token (see `custody token`)")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "print JSON instead of tables")

	rootCmd.AddCommand(newTokenCommand(ctx))
	rootCmd.AddCommand(newCaseCommand(ctx))
	rootCmd.AddCommand(newEntryCommand(ctx))
	rootCmd.AddCommand(newEvidenceCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newJobCommand(ctx))
	rootCmd.AddCommand(newEventsCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
