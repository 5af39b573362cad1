package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintyard/internal/access"
)

func newFeatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "System feature management commands",
	}

	cmd.AddCommand(newFeatureListCmd())
	cmd.AddCommand(newFeatureToggleCmd("enable", true))
	cmd.AddCommand(newFeatureToggleCmd("disable", false))
	return cmd
}

func newFeatureListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List system features and their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			features, err := access.ListFeatures(gormDB)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROUTE\tNAME\tENABLED\tPUBLIC")
			for _, f := range features {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", f.RouteName, f.Name, f.IsEnabled, f.IsPublic)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	return cmd
}

func newFeatureToggleCmd(verb string, enabled bool) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   verb + " <route-name>",
		Short: capitalize(verb) + " a system feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := access.SetFeatureEnabled(gormDB, args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Feature %s %sd\n", args[0], verb)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
