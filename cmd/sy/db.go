package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintyard/internal/config"
	"github.com/zulandar/sprintyard/internal/db"
	"gorm.io/gorm"
)

const defaultConfigPath = "sprintyard.yaml"

// loadConfig reads the config file at path. A missing file at the default
// path falls back to the built-in defaults (local SQLite) so a fresh checkout
// works without any setup.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Sprintyard database",
		Long:  "Migrates all tables and seeds the built-in roles and system features.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	switch cfg.DB.Driver {
	case "sqlite":
		fmt.Fprintf(out, "Using SQLite database %s\n", cfg.DB.Path)
	default:
		fmt.Fprintf(out, "Connected to %s at %s:%d\n", cfg.DB.Database, cfg.DB.Host, cfg.DB.Port)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedRoles(gormDB); err != nil {
		return err
	}
	if err := db.SeedFeatures(gormDB); err != nil {
		return err
	}
	fmt.Fprintln(out, "Seeded roles and system features")

	fmt.Fprintln(out, "\nSprintyard database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Sprintyard database",
		Long: `Drops every Sprintyard table, then re-runs migration and seeding.

For the SQLite driver this removes the database file. All project data is
lost; pass --yes to skip the confirmation prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, yes bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !yes {
		fmt.Fprint(out, "This destroys all Sprintyard data. Continue? [y/N] ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if cfg.DB.Driver == "sqlite" {
		if err := os.Remove(cfg.DB.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", cfg.DB.Path, err)
		}
		fmt.Fprintf(out, "Removed %s\n", cfg.DB.Path)
	} else {
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		for _, model := range db.AllModels() {
			if err := gormDB.Migrator().DropTable(model); err != nil {
				return fmt.Errorf("drop table for %T: %w", model, err)
			}
		}
		fmt.Fprintf(out, "Dropped %d tables\n", len(db.AllModels()))
	}

	return runDBInit(cmd, configPath)
}
