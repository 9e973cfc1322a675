// Command taskflow runs the TaskFlow API and its maintenance tasks.
//
// @title                       TaskFlow API
// @version                     1.0
// @description                 Multi-role project and task management backend.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        token
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskflow",
		Short:         "TaskFlow project and task management API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		createAdminCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
