package cmd

import (
	"github.com/spf13/cobra"

	"songdwh/internal/catalog"
	"songdwh/internal/ui"
	"songdwh/pkg/errors"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the row count of every table",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := openSession(ctx, cfg, newLogger(cmd))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	restore := ui.SetOutput(cmd.OutOrStdout())
	defer restore()

	counts := make([]ui.TableCount, 0, len(catalog.Tables()))
	for _, table := range catalog.Tables() {
		count := ui.TableCount{Table: table}

		exists, err := session.TableExists(ctx, table)
		switch {
		case err != nil:
			count.Err = err
		case !exists:
			count.Err = errors.New(errors.ErrCodeSQLObjectNotFound, "table does not exist")
		default:
			count.Rows, count.Err = session.CountRows(ctx, table)
		}

		counts = append(counts, count)
	}

	ui.ShowRowCounts(counts)
	return nil
}
