package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/slashd/slashd/internal/bot"
	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/config"
	"github.com/slashd/slashd/internal/logger"
	"github.com/slashd/slashd/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and serve the declared commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Flags override the environment.
		if cfgToken != "" {
			cfg.Token = cfgToken
		}
		if cfgAppID != "" {
			cfg.AppID = cfgAppID
		}
		if len(cfgGuildIDs) > 0 {
			cfg.DebugGuilds = cfgGuildIDs
		}
		if cfgOwnerID != "" {
			cfg.OwnerID = cfgOwnerID
		}
		if cfgLogLevel != "" {
			cfg.LogLevel = cfgLogLevel
		}
		if cfgMetricsAddr != "" {
			cfg.MetricsAddr = cfgMetricsAddr
		}
		if cfg.StateDir == "" {
			cfg.StateDir = cfgStateDir
		}

		logger.Setup(cfg.StateDir, cfg.LogLevel)
		return runServe(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&cfgToken, "token", "", "Discord bot token (env SLASHD_TOKEN)")
	serveCmd.Flags().StringVar(&cfgAppID, "app-id", "", "Application ID override (env SLASHD_APP_ID)")
	serveCmd.Flags().StringSliceVar(&cfgGuildIDs, "debug-guilds", nil, "Sandbox guild IDs for unscoped commands (env SLASHD_DEBUG_GUILDS)")
	serveCmd.Flags().StringVar(&cfgOwnerID, "owner-id", "", "Owner user ID (env SLASHD_OWNER_ID)")
	serveCmd.Flags().StringVar(&cfgLogLevel, "log-level", "", "Log level: debug, info, warn, error (env SLASHD_LOG_LEVEL)")
	serveCmd.Flags().StringVar(&cfgMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address (env SLASHD_METRICS_ADDR)")
}

func runServe(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := bot.New(bot.Config{
		Token:       cfg.Token,
		AppID:       cfg.AppID,
		DebugGuilds: cfg.DebugGuilds,
		OwnerID:     cfg.OwnerID,
	})
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}

	if err := declareCommands(b, cancel); err != nil {
		return fmt.Errorf("declare commands: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	printBanner(cfg)

	<-ctx.Done()
	slog.Info("shutting down...")
	return b.Stop()
}

// declareCommands registers the built-in demo commands.
func declareCommands(b *bot.Bot, shutdown context.CancelFunc) error {
	_, err := b.Slash(command.Config{
		Name:        "ping",
		Description: "Echo a message back",
		Options: []*command.Option{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "msg",
				Description: "Message to echo",
				Required:    true,
			},
		},
	}, func(ctx *command.Context) error {
		return ctx.Respond(fmt.Sprintf("pong: %s", ctx.StringOption("msg")))
	})
	if err != nil {
		return err
	}

	_, err = b.Slash(command.Config{
		Name:        "shutdown",
		Description: "Stop the bot (owner only)",
		Checks:      []command.Check{b.OwnerOnly()},
	}, func(ctx *command.Context) error {
		if err := ctx.Respond("shutting down"); err != nil {
			return err
		}
		// Give the acknowledgement time to flush before teardown.
		time.AfterFunc(time.Second, shutdown)
		return nil
	})
	return err
}

func printBanner(cfg *config.Config) {
	metricsStatus := "disabled"
	if cfg.MetricsAddr != "" {
		metricsStatus = cfg.MetricsAddr
	}
	sandbox := "off"
	if len(cfg.DebugGuilds) > 0 {
		sandbox = fmt.Sprintf("%d guild(s)", len(cfg.DebugGuilds))
	}

	fmt.Printf("\n")
	fmt.Printf("  slashd v%s\n", version)
	fmt.Printf("  sandbox: %s  metrics: %s\n", sandbox, metricsStatus)
	fmt.Printf("  state: %s\n", cfg.StateDir)
	fmt.Printf("\n")
}
