// Package cli implements the clubctl operator commands: sign in to the
// club backend, inspect the stored session, and trigger a classroom
// announcements sync.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "clubctl",
	Short: "Operator CLI for the Breaking Math Club backend",
	Long: `clubctl talks to the club backend as an operator.

Sign in once with "clubctl login"; the session is stored under
~/.config/clubctl and reused by the other commands until it expires or
"clubctl logout" clears it.

The server URL comes from --server, the CLUBCTL_SERVER environment
variable, or the default localhost address, in that order.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Base URL of the club backend")
	rootCmd.PersistentFlags().String("session-dir", "", "Override the session directory (default ~/.config/clubctl)")

	viper.SetEnvPrefix("clubctl")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("session_dir", rootCmd.PersistentFlags().Lookup("session-dir"))

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(syncCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func serverURL() string {
	return viper.GetString("server")
}

func sessionDir() string {
	return viper.GetString("session_dir")
}
