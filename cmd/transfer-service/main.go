package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"transferservice/internal/config"
	"transferservice/internal/server"
)

const shutdownTimeout = 30 * time.Second

type options struct {
	configPath string
	envFile    string
	port       int
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "transfer-service",
		Short: "Relay files from source URLs to an upload endpoint",
		Long: "transfer-service accepts batches of jobs on POST /transfer, downloads each file,\n" +
			"stages it in a temporary file and uploads it to UPLOAD_URL.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port (overrides PORT)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	return cmd
}

// loadConfig applies defaults, the YAML file, the dotenv file, the process
// environment and flags, in that order of precedence.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Default()

	if opts.configPath != "" {
		if err := cfg.LoadFromFile(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}

	// Existing environment variables win over the file.
	if err := godotenv.Load(opts.envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return config.Config{}, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}

	if err := cfg.LoadFromEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if opts.debug {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if !logger.Debug().Enabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, closer, err := server.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close upload destination")
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Int("port", cfg.Port).
			Bool("fail_fast", cfg.FailFast).
			Bool("target_path_in_url", cfg.TargetPathInURL).
			Int("chunk_size", cfg.ChunkSize).
			Msg("transfer service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
