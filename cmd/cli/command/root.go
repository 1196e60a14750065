package command

// root.go defines the root command and the global flags of the admin CLI.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schooladmin/cmd/cli/authentication"
	"schooladmin/cmd/cli/command/client"
)

var apiURL string // Global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schooladmin",
	Short: "schooladmin - language school admin CLI",
	Long: `schooladmin talks to the admin dashboard API. Use it to:
- Read, acknowledge and clear live notifications
- Watch notifications as they arrive
- Page, sort and search consultation requests

Use "schooladmin command --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("SCHOOLADMIN_API", "http://localhost:8080"), "API server URL")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(consultationsCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// authedClient returns an API client carrying the stored token.
func authedClient() (*client.HTTPClient, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, err
	}
	c := client.NewHTTPClient(apiURL)
	c.SetToken(creds.AccessToken)
	return c, nil
}
