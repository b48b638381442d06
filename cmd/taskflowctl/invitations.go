package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func invitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "Manage team invitations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete pending invitations past their expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			removed, err := e.services.Teams.PruneExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired invitations\n", removed)
			return nil
		},
	})

	return cmd
}
