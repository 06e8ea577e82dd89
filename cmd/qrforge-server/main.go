// qrforge-server serves QR code generation over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrforge/qrforge/internal/admin"
	"github.com/qrforge/qrforge/internal/api"
	"github.com/qrforge/qrforge/internal/config"
	"github.com/qrforge/qrforge/pkg/bytesize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile          string
	logLevel         string
	listenAddr       string
	minContrastRatio float64
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qrforge-server",
		Short: "QR code generation server",
		Long: `qrforge-server renders QR codes over HTTP.

It provides a REST API for clients to:
- Generate plain black on white QR codes
- Generate styled QR codes with custom colours, module shapes and a logo

Colour pairs are checked for contrast before rendering so that every
returned code stays scannable.`,
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address, overrides config and environment")
	rootCmd.Flags().Float64Var(&minContrastRatio, "min-contrast-ratio", 0, "minimum fill/background contrast ratio (1-21.2)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrforge-server %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Build Time: %s\n", BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadServerConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if cmd.Flags().Changed("listen") {
		cfg.Listen = listenAddr
	}
	if cmd.Flags().Changed("min-contrast-ratio") {
		cfg.MinContrastRatio = minContrastRatio
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}

	srv, err := api.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	srv.SetVersion(Version)

	var adminSrv *admin.Server
	if cfg.Admin.Listen != "" {
		adminSrv = admin.NewServer()
		if err := adminSrv.Start(cfg.Admin.Listen); err != nil {
			return fmt.Errorf("start admin server: %w", err)
		}
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	log.Info().
		Str("listen", cfg.Listen).
		Float64("min_contrast_ratio", cfg.MinContrastRatio).
		Str("max_upload_size", bytesize.Format(maxUpload)).
		Str("version", Version).
		Msg("starting qrforge server")

	select {
	case err := <-errChan:
		if adminSrv != nil {
			_ = adminSrv.Stop()
		}
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if adminSrv != nil {
		if err := adminSrv.Stop(); err != nil {
			log.Error().Err(err).Msg("admin server shutdown failed")
		}
	}

	return <-errChan
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Use pretty console output
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
