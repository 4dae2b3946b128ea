package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexuscrm/fieldsync/internal/bootstrap"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

var initWorkspaces []string

// initCmd creates the metadata tables and registers workspaces
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the metadata schema and provision workspaces",
	Long: `Create the metadata tables if missing, then register each --workspace with the
standard objects and create its tenant tables. Fields are created by the next sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ws := range initWorkspaces {
			if !utils.IsValidUUID(ws) {
				return fmt.Errorf("workspace id %q is not a UUID", ws)
			}
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := bootstrap.InitializeSchema(cmd.Context(), a.db.DB()); err != nil {
			return err
		}
		for _, ws := range initWorkspaces {
			if err := bootstrap.ProvisionWorkspace(cmd.Context(), a.metadata, a.ddl, a.registry, ws); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringSliceVarP(&initWorkspaces, "workspace", "w", nil, "workspace id to provision (repeatable)")
}
