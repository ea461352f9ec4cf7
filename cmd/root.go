package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"songdwh/internal/catalog"
	"songdwh/internal/config"
	"songdwh/internal/observability"
	"songdwh/internal/pipeline"
	"songdwh/internal/ui"
	"songdwh/internal/warehouse"
	"songdwh/pkg/errors"
	"songdwh/pkg/models"
)

var (
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "songdwh",
		Short: "Load song play events into a Redshift star schema",
		Long: `songdwh resets a star schema on an Amazon Redshift cluster, bulk-loads
raw event and song JSON from S3 into staging tables, and transforms them
into a songplays fact table with users, songs, artists and time dimensions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Session is what the commands need from a warehouse connection
type Session interface {
	pipeline.Session
	CountRows(ctx context.Context, table string) (int64, error)
	TableExists(ctx context.Context, table string) (bool, error)
}

// openSession connects to the configured warehouse. Tests replace it.
var openSession = func(ctx context.Context, cfg *models.Config, logger *slog.Logger) (Session, error) {
	svc := warehouse.NewService(warehouseConfig(cfg), logger)
	if err := svc.Connect(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.SetOutput(os.Stderr)
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default $"+config.ConfigEnvVar+" or ./"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every statement")
}

// loadDotEnv exports a .env file from the working directory, if present.
// Variables already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	return observability.NewLogger(observability.LoggerConfig{
		Verbose: verbose,
		Output:  cmd.ErrOrStderr(),
		Service: "songdwh",
		Version: Version,
	})
}

func loadConfig() (*models.Config, error) {
	return config.Load(cfgFile)
}

func warehouseConfig(cfg *models.Config) warehouse.Config {
	return warehouse.Config{
		Host:           cfg.Cluster.Host,
		Port:           cfg.Cluster.DBPort,
		Database:       cfg.Cluster.DBName,
		User:           cfg.Cluster.DBUser,
		Password:       cfg.Cluster.DBPassword,
		SSLMode:        cfg.Cluster.SSLMode,
		ConnectTimeout: cfg.Cluster.ConnectTimeout,
	}
}

// newDriver builds the catalog for the configured engine and a driver that
// opens its session through openSession
func newDriver(cfg *models.Config, logger *slog.Logger) (*pipeline.Driver, error) {
	engine, err := catalog.ParseEngine(cfg.Cluster.Engine)
	if err != nil {
		return nil, errors.ConfigError(err.Error(), "cluster.engine")
	}

	cat := catalog.NewForEngine(cfg, engine)
	open := func(ctx context.Context) (pipeline.Session, error) {
		return openSession(ctx, cfg, logger)
	}

	return pipeline.New(cat, open, logger), nil
}
