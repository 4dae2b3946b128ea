package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexuscrm/fieldsync/internal/application/services"
	"github.com/nexuscrm/fieldsync/internal/domain/models"
)

var (
	planWorkspace string
	planShowDDL   bool
)

// planCmd is a dry run: compile and compare without writing anything
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the changes a sync would make",
	Long:  `Compile and compare one workspace and print the field changes, without applying them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		planned, err := a.reconciler.Plan(cmd.Context(), planWorkspace)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		objectName := func(id string) string {
			if obj, ok := planned.Objects[id]; ok {
				return obj.NameSingular
			}
			return id
		}
		for _, row := range planned.Storage.ToDelete() {
			fmt.Fprintf(out, "DELETE\t%s.%s\n", objectName(row.ObjectMetadataID), row.Name)
		}
		for _, u := range planned.Storage.ToUpdate() {
			fmt.Fprintf(out, "UPDATE\t%s.%s\t%v\n", objectName(u.After.ObjectMetadataID), u.Before.Name, u.Changed)
		}
		for _, row := range planned.Storage.ToCreate() {
			fmt.Fprintf(out, "CREATE\t%s.%s\t%s\n", objectName(row.ObjectMetadataID), row.Name, row.Type)
		}
		created, updated, deleted := planned.Storage.Counts()
		fmt.Fprintf(out, "%d to create, %d to update, %d to delete\n", created, updated, deleted)

		if planShowDDL {
			changes := planned.Storage.ChangeSet()
			plan := services.BuildMigrationPlan(planWorkspace, &models.ApplyResult{
				Created: changes.ToCreate,
				Updated: changes.ToUpdate,
				Deleted: changes.ToDelete,
			}, planned.Objects)
			statements, err := a.ddl.BuildStatements(planWorkspace, plan)
			if err != nil {
				return err
			}
			for _, stmt := range statements {
				fmt.Fprintf(out, "%s;\n", stmt)
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planWorkspace, "workspace", "w", "", "workspace id")
	planCmd.Flags().BoolVar(&planShowDDL, "ddl", false, "also print the DDL the plan would run")
}
