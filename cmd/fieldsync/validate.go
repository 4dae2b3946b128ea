package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd checks the embedded Definition Model without touching any database
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the standard object definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, _, err := loadDefinitions()
		if err != nil {
			return err
		}

		fields, relations, dynamic := 0, 0, 0
		for _, obj := range registry.Objects() {
			fields += len(obj.Fields)
			relations += len(obj.Relations)
			dynamic += len(obj.DynamicRelations)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %d objects, %d fields, %d relations, %d dynamic relations, %d template fields\n",
			len(registry.Objects()), fields, relations, dynamic, len(registry.Template().Fields))
		return nil
	},
}
