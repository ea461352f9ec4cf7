package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"songdwh/internal/config"
	"songdwh/internal/ui"
	"songdwh/pkg/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration and manage the stored password",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML with the password masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", config.GetConfigFile(cfgFile))
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store DB_PASSWORD for DB_USER in the OS keyring",
	Long: `Read a password (without echo on a terminal, otherwise the first line of
standard input) and store it in the OS keyring under the configured DB_USER.
An empty DB_PASSWORD in the config file then falls back to the stored value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cluster.DBUser == "" {
			return errors.MissingConfigError("CLUSTER.DB_USER")
		}

		password, err := readPassword(cmd)
		if password == "" {
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigMissing, "No password on standard input")
			}
			return errors.New(errors.ErrCodeConfigMissing, "No password on standard input")
		}

		if err := config.StorePassword(cfg.Cluster.DBUser, password); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to store password")
		}

		restore := ui.SetOutput(cmd.OutOrStdout())
		defer restore()
		ui.ShowSuccess(fmt.Sprintf("password stored for %s", cfg.Cluster.DBUser))
		return nil
	},
}

// readPassword prompts without echo on a terminal, otherwise reads the
// first line of input
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(data), err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetPasswordCmd)
	rootCmd.AddCommand(configCmd)
}
