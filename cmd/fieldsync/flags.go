package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"
)

// flagsCmd represents the flags command
var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Inspect and change workspace feature flags",
}

// listFlagsCmd prints the flags of a workspace
var listFlagsCmd = &cobra.Command{
	Use:   "list [workspace-id]",
	Short: "List the feature flags of a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		flags, err := a.flags.GetFeatureFlags(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for key, value := range flags {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%t\n", key, value)
		}
		return nil
	},
}

// setFlagCmd sets one flag and drops the cached copy
var setFlagCmd = &cobra.Command{
	Use:   "set [workspace-id] [flag] [true|false]",
	Short: "Set a feature flag of a workspace",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("invalid flag value %q: %w", args[2], err)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.flags.SetFeatureFlag(cmd.Context(), args[0], args[1], value); err != nil {
			return err
		}
		if a.flagCache != nil {
			if err := a.flagCache.Invalidate(cmd.Context(), args[0]); err != nil {
				log.Warnf("⚠️  Failed to invalidate cached flags: %v", err)
			}
		}
		log.WithField("workspace", args[0]).Printf("🚩 %s = %t", args[1], value)
		return nil
	},
}

func init() {
	flagsCmd.AddCommand(listFlagsCmd)
	flagsCmd.AddCommand(setFlagCmd)
}
