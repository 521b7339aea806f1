// Package cli implements the expensehub command-line client for the
// expense service HTTP API.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "expensehub",
		Short:         "Expense service CLI",
		Long:          "Command-line interface for the expense submission and approval API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	client := NewClient(host)

	// Flag > env > default precedence, resolved once flags are parsed.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("host") {
			if v := os.Getenv("EXPENSEHUB_HOST"); v != "" {
				host = v
			}
		}
		if !cmd.Flags().Changed("output") {
			if v := os.Getenv("EXPENSEHUB_OUTPUT"); v != "" {
				output = v
			}
		}
		if err := validateOutputFormat(output); err != nil {
			return err
		}
		if err := validateHostURL(host); err != nil {
			return err
		}
		client.BaseURL = normalizeHost(host)
		return nil
	}

	rootCmd.AddCommand(newUsersCmd(client))
	rootCmd.AddCommand(newExpensesCmd(client))
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "expensehub %s (%s)\n", version, commit)
			return nil
		},
	}
}
