package cmd

import (
	"github.com/spf13/cobra"

	"songdwh/internal/ui"
)

var verifyStorageCmd = &cobra.Command{
	Use:   "verify-storage",
	Short: "Check that the configured S3 locations exist",
	Long: `List the LOG_DATA and SONG_DATA prefixes and read the metadata of the
LOG_JSONPATH file using the default AWS credential chain. This checks what
the caller can see, not what the cluster's IAM role can read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		restore := ui.SetOutput(cmd.OutOrStdout())
		defer restore()

		if err := checkStorage(cmd.Context(), cfg); err != nil {
			return err
		}
		ui.ShowSuccess("all storage locations found")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyStorageCmd)
}
