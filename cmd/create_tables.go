package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"songdwh/internal/catalog"
	"songdwh/internal/ui"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate every staging, fact and dimension table",
	Long: `Connect to the cluster, drop all seven tables if they exist, create them
again, and disconnect. Each statement is committed on its own; a failure
stops the run and can leave the schema partially recreated.`,
	Args: cobra.NoArgs,
	RunE: runCreateTables,
}

func init() {
	rootCmd.AddCommand(createTablesCmd)
}

func runCreateTables(cmd *cobra.Command, args []string) error {
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

	ui.ShowHeader("Create Tables")
	if err := driver.RunSetup(cmd.Context()); err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("%d tables recreated", len(catalog.Tables())))
	return nil
}
