// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "netconsole-admin",
	Short: "NetConsole-Admin is a web-based operations console for managed network devices",
	Long: `NetConsole-Admin is a web-based operations console for managed network
devices that provides hybrid local and directory (LDAP/Active Directory)
authentication, group synchronization and permission management.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
