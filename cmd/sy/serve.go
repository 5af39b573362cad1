package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintyard/internal/config"
	"github.com/zulandar/sprintyard/internal/db"
	"github.com/zulandar/sprintyard/internal/defect"
	"github.com/zulandar/sprintyard/internal/notify"
	"github.com/zulandar/sprintyard/internal/notify/discord"
	"github.com/zulandar/sprintyard/internal/notify/slack"
	"github.com/zulandar/sprintyard/internal/sprint"
	"github.com/zulandar/sprintyard/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Sprintyard API server",
		Long: `Starts the JSON API, the scheduled overdue-sprint sweep, and any chat
notification adapters configured under notify.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Sprintyard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if err := db.SeedRoles(gormDB); err != nil {
		return err
	}
	if err := db.SeedFeatures(gormDB); err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()

	var exporter *defect.Exporter
	if cfg.GitHub.Token != "" {
		exporter, err = defect.NewExporter(ctx, cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Defect export targets github.com/%s/%s\n", cfg.GitHub.Owner, cfg.GitHub.Repo)
	}

	go func() {
		if err := sprint.RunSweeper(ctx, gormDB, cfg.Sweep.Schedule, notifier, out); err != nil {
			fmt.Fprintf(out, "sweeper disabled: %v\n", err)
		}
	}()

	return web.Start(ctx, web.Opts{
		DB:       gormDB,
		Port:     port,
		Notifier: notifier,
		Exporter: exporter,
		Out:      out,
	})
}

// buildNotifier assembles the dispatcher from the configured chat adapters.
// With no tokens set it returns an empty dispatcher, which discards events.
func buildNotifier(cfg *config.Config) (*notify.Dispatcher, error) {
	var adapters []notify.Adapter

	if cfg.Notify.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if cfg.Notify.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	return notify.NewDispatcher(adapters...), nil
}
