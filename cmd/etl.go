package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"songdwh/internal/storage"
	"songdwh/internal/ui"
	"songdwh/pkg/models"
)

var verifyBeforeLoad bool

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load staging tables from S3 and fill the star schema",
	Long: `Connect to the cluster, COPY the event log and song data from S3 into the
staging tables, run the five INSERT ... SELECT transforms into songplays,
users, songs, artists and time, and disconnect. Run create-tables first.`,
	Args: cobra.NoArgs,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().BoolVar(&verifyBeforeLoad, "verify-storage", false,
		"check the S3 locations exist before loading")
	rootCmd.AddCommand(etlCmd)
}

func runETL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	driver, err := newDriver(cfg, logger)
	if err != nil {
		return err
	}

	restore := ui.SetOutput(cmd.OutOrStdout())
	defer restore()

	ui.ShowHeader("ETL")

	if verifyBeforeLoad {
		if err := checkStorage(cmd.Context(), cfg); err != nil {
			return err
		}
	}

	if err := driver.RunETL(cmd.Context()); err != nil {
		return err
	}

	ui.ShowSuccess("staging loaded and star schema populated")
	return nil
}

// newVerifier builds the storage checker. Tests replace it.
var newVerifier = func(ctx context.Context, region string) (*storage.Verifier, error) {
	return storage.NewVerifier(ctx, region)
}

// checkStorage verifies every configured location and prints one row per
// location; the first failure is returned
func checkStorage(ctx context.Context, cfg *models.Config) error {
	verifier, err := newVerifier(ctx, cfg.S3.Region)
	if err != nil {
		return err
	}

	results := verifier.VerifyAll(ctx, cfg)

	table := ui.NewTable("SETTING", "LOCATION", "STATUS")
	for _, r := range results {
		status := ui.ColorSuccess("ok")
		if !r.OK() {
			status = ui.ColorError("missing")
		}
		table.AddRow(r.Name, r.Location, status)
	}
	table.Render()

	return storage.Failed(results)
}
