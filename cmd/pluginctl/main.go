// Package main provides the pluginctl binary entry point. Pluginctl runs the
// UI-side controller of the design-tool plugin: it bridges the panel's
// intents to the execution host over a message channel and keeps the
// settings and preset mirrors in sync.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/uixray/figma-llm-plugin-sub001/channel"
	"github.com/uixray/figma-llm-plugin-sub001/config"
	"github.com/uixray/figma-llm-plugin-sub001/controller"
	"github.com/uixray/figma-llm-plugin-sub001/metric"
)

const (
	Version = "0.1.0"
	appName = "pluginctl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "UI-side controller for the design-tool plugin",
		Long: `Pluginctl bridges the plugin panel to its execution host: it correlates
requests with asynchronous responses, drives streaming text generation, and
manages the data-preset collection used for document substitution.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", appName, Version)
		},
	}
}

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	return cmd
}

func serve(parent context.Context, configPath string) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ch, err := dialChannel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ch.Close()

	registry := prometheus.NewRegistry()
	metrics, err := metric.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	ctrl := controller.New(ch,
		controller.WithLogger(logger),
		controller.WithMetrics(metrics),
		controller.WithNotifier(consoleNotifier{logger: logger}),
		controller.WithConfirmer(stdinConfirmer{}),
		controller.WithSettingsLoadTimeout(cfg.Timeouts.SettingsLoad),
	)
	defer ctrl.Close()

	if err := ctrl.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info("controller ready", "channel", cfg.Channel.Kind)

	if configPath != "" {
		err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
			if err := level.UnmarshalText([]byte(next.Log.Level)); err == nil {
				logger.Info("log level updated", "level", next.Log.Level)
			}
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func dialChannel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (channel.Channel, error) {
	switch cfg.Channel.Kind {
	case config.ChannelNATS:
		return channel.DialNATS(channel.NATSConfig{
			URL:        cfg.Channel.NATSURL,
			SubjectOut: cfg.Channel.SubjectOut,
			SubjectIn:  cfg.Channel.SubjectIn,
			Logger:     logger,
		})
	case config.ChannelWebSocket:
		return channel.DialWS(ctx, channel.WSConfig{
			URL:    cfg.Channel.WSURL,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("unsupported channel kind %q", cfg.Channel.Kind)
	}
}

// consoleNotifier renders controller notices through the logger.
type consoleNotifier struct {
	logger *slog.Logger
}

func (n consoleNotifier) Notify(level controller.Level, message string) {
	switch level {
	case controller.LevelError:
		n.logger.Error(message)
	case controller.LevelWarning:
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}

// stdinConfirmer asks for interactive confirmation on stdin.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
