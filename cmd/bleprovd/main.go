package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcereceda/bleprov/internal/config"
	"github.com/jcereceda/bleprov/internal/provision"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/bleprov/config.yaml)")
	deviceName := flag.String("name", "", "advertised device name (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *deviceName != "" {
		cfg.DeviceName = *deviceName
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	printBanner(cfg)

	stack := provision.NewTinyGoStack(logger)
	session := provision.NewSession(stack, logger)

	// Credentials go to stdout as a single machine-readable line so a
	// supervising process can pick them up; this daemon does not join the
	// network itself.
	onCredentials := func(ssid, password string) {
		logger.Info("credentials provisioned", "ssid", ssid, "password_len", len(password))
		fmt.Printf("ssid=%q password=%q\n", ssid, password)
		session.NotifyStatus("wifi-received")
	}

	if err := session.Begin(cfg.DeviceName, onCredentials); err != nil {
		logger.Error("begin provisioning", "error", err)
		os.Exit(1)
	}

	if cfg.AutoStart {
		if err := session.Start(); err != nil {
			logger.Error("start provisioning", "error", err)
			os.Exit(1)
		}
		logger.Info("advertising", "device", cfg.DeviceName, "service", provision.ServiceUUID)
	}

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Cooperative tick driving deferred advertising restarts.
	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			session.Loop()

		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
			if err := session.Stop(); err != nil {
				logger.Warn("stop provisioning", "error", err)
			}
			return
		}
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults with env overrides.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.FromEnv()
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Fprintln(os.Stderr, "=== bleprovd ===")
	fmt.Fprintf(os.Stderr, "  Device:     %s\n", cfg.DeviceName)
	fmt.Fprintf(os.Stderr, "  Auto-start: %t\n", cfg.AutoStart)
	fmt.Fprintf(os.Stderr, "  Tick:       %s\n", cfg.Tick())
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", cfg.LogLevel)
	fmt.Fprintln(os.Stderr, "================")
}
