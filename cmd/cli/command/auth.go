package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"schooladmin/cmd/cli/authentication"
	"schooladmin/internal/config"
	"schooladmin/internal/microservices/http-api/service"
)

// authCmd represents the auth command for token related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Manage the access token the CLI sends to the admin API.`,
}

var setTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store an access token in the OS keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.StoreTokens(&authentication.StoredCredentials{AccessToken: args[0]}); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		printSuccess("Token stored.")
		return nil
	},
}

// issueTokenCmd signs a token locally; it needs the server's JWT_SECRET in the environment.
var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Sign an admin access token with the server secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		save, _ := cmd.Flags().GetBool("save")
		scopes, _ := cmd.Flags().GetStringSlice("scope")

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg.AccessTokenTTL = ttl

		token, err := service.NewAuthService(cfg).IssueAccessToken(subject, service.RoleAdmin, scopes)
		if err != nil {
			return err
		}

		if save {
			creds := &authentication.StoredCredentials{
				AccessToken: token,
				Subject:     subject,
				ExpiresAt:   time.Now().Add(ttl).Unix(),
			}
			if err := authentication.StoreTokens(creds); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			printSuccess("Token issued for %s and stored.", subject)
			return nil
		}
		fmt.Println(token)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		printSuccess("Logged out.")
		return nil
	},
}

func init() {
	authCmd.AddCommand(setTokenCmd)
	authCmd.AddCommand(issueTokenCmd)
	authCmd.AddCommand(logoutCmd)

	issueTokenCmd.Flags().StringP("subject", "s", "", "Operator the token is issued to")
	issueTokenCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	issueTokenCmd.Flags().StringSlice("scope", service.DefaultAdminScopes, "Granted scopes, e.g. notifications:read (write scopes gate mark-read, clear and refresh)")
	issueTokenCmd.Flags().Bool("save", false, "Store the token in the keyring instead of printing it")
	issueTokenCmd.MarkFlagRequired("subject")
}
