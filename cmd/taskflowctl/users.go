package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidar/taskflow/internal/service"
	"github.com/aidar/taskflow/internal/tracker"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users with task counts and plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.services.Stats.GetStats(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats.UserStats)
			}
			return printUsers(cmd, stats.UserStats)
		},
	}
	list.Flags().BoolP("json", "j", false, "Output as JSON")

	cmd.AddCommand(list)
	return cmd
}

func printUsers(cmd *cobra.Command, users []service.UserStats) error {
	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tPLAN\tTASKS\tDONE\tTRACKED\tTIMER\tLAST LOGIN")
	for _, u := range users {
		timer := ""
		if u.TimerRunning {
			timer = "running"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			u.Email, u.Name, u.Plan, u.Tasks, u.CompletedTasks,
			tracker.FormatHM(u.TotalTime), timer, u.LastLogin.Format(time.DateTime))
	}
	return w.Flush()
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals across all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.services.Stats.GetStats(ctx)
			if err != nil {
				return err
			}

			t := stats.Totals
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "TaskFlow Stats")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Users:          %d\n", t.Users)
			fmt.Fprintf(out, "  Paid plans:     %d\n", t.PaidPlans)
			fmt.Fprintf(out, "  Teams:          %d\n", t.Teams)
			fmt.Fprintf(out, "  Tasks:          %d (%d completed)\n", t.Tasks, t.CompletedTasks)
			fmt.Fprintf(out, "  Active timers:  %d\n", t.ActiveTimers)
			fmt.Fprintf(out, "  Tracked time:   %s\n", tracker.FormatHM(t.TrackedTime))
			return nil
		},
	}
}
