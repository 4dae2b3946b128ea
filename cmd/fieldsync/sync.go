package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/constants"
)

var (
	syncWorkspaces []string
	syncAll        bool
)

// syncCmd reconciles one or more workspaces
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile workspaces",
	Long:  `Compile, compare, apply and migrate the given workspaces, or every workspace with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(syncWorkspaces) == 0 && !syncAll {
			return fmt.Errorf("pass --workspace <id> or --all")
		}
		if len(syncWorkspaces) > 0 && syncAll {
			return fmt.Errorf("--workspace and --all are mutually exclusive")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.runner.SyncAll(cmd.Context(), syncWorkspaces)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d workspace(s) failed", len(failed))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncWorkspaces, "workspace", "w", nil, "workspace id (repeatable)")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "reconcile every workspace")
}

func printReport(cmd *cobra.Command, report *models.RunReport) {
	out := cmd.OutOrStdout()
	for _, o := range report.Outcomes {
		switch {
		case o.Skipped:
			fmt.Fprintf(out, "%s\tskipped\t%v\n", o.WorkspaceID, o.Err)
		case o.Err != nil:
			fmt.Fprintf(out, "%s\tfailed\t%v\n", o.WorkspaceID, o.Err)
		default:
			fmt.Fprintf(out, "%s\tok\t+%d ~%d -%d\t%s\n", o.WorkspaceID,
				o.Plan.Count(constants.ActionCreate), o.Plan.Count(constants.ActionUpdate), o.Plan.Count(constants.ActionDelete),
				o.Duration.Round(time.Millisecond))
		}
	}
}
