package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidar/taskflow/internal/export"
	"github.com/aidar/taskflow/internal/service"
)

func exportCmd() *cobra.Command {
	var (
		format   string
		from, to string
		output   string
		opts     = export.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "export [email]",
		Short: "Export a user's tasks as csv, json or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			opts.FromDate = from
			opts.ToDate = to

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.services.Tasks.Export(ctx, service.NormalizeEmail(args[0]), f, opts)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(result.Body)
				return err
			}
			if err := os.WriteFile(output, result.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(result.Body), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Format (csv, json, html, pdf)")
	cmd.Flags().StringVar(&from, "from", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "End date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&opts.IncludeSessions, "sessions", opts.IncludeSessions, "Include sessions")
	cmd.Flags().BoolVar(&opts.IncludeAnalytics, "analytics", opts.IncludeAnalytics, "Include analytics")
	cmd.Flags().BoolVar(&opts.IncludeComments, "comments", opts.IncludeComments, "Include comments")
	cmd.Flags().BoolVar(&opts.IncludeMetadata, "metadata", opts.IncludeMetadata, "Include metadata")

	return cmd
}
