// Package cli implements the streamsplit command line: the server itself and
// a thin client for the household API.
package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
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
			errObj := map[string]any{
				"error": err.Error(),
			}
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				errObj["code"] = connectErr.Code().String()
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// clientFactory builds API clients against the host resolved by the root
// command's pre-run.
type clientFactory struct {
	host       string
	httpClient connect.HTTPClient
}

func (f *clientFactory) client() *api.Client {
	httpClient := f.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return api.NewClient(httpClient, strings.TrimRight(f.host, "/"))
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		output string
	)
	factory := &clientFactory{}

	rootCmd := &cobra.Command{
		Use:           "streamsplit",
		Short:         "Shared subscription expense tracker",
		Long:          "Track which household members share which subscriptions and who has paid each month.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("STREAMSPLIT_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("STREAMSPLIT_OUTPUT"); v != "" {
					output = v
				}
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			factory.host = host
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	// Server side
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())

	// Client side
	rootCmd.AddCommand(newDashboardCmd(factory))
	rootCmd.AddCommand(newMonthCmd(factory))
	rootCmd.AddCommand(newPayCmd(factory))
	rootCmd.AddCommand(newReportCmd(factory))
	rootCmd.AddCommand(newMemberCmd(factory))
	rootCmd.AddCommand(newServiceCmd(factory))
	rootCmd.AddCommand(newReloadCmd(factory))

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
