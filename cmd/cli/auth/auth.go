package auth

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd())
}

// loginCmd logs in a user and stores the JWT locally.
func loginCmd() *cobra.Command {
	var username, password string
	var register bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the AmmoTrack API",
		Long: `Authenticate with the AmmoTrack API and store a JWT for subsequent commands.
The password is read from stdin when --password is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			creds := map[string]string{"username": username, "password": password}
			c := client.New()

			if register {
				var u struct {
					Role string `json:"role"`
				}
				if err := c.Post("/auth/register", creds, &u); err != nil {
					return fmt.Errorf("register: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s with role %s.\n", username, u.Role)
			}

			var resp struct {
				Token string `json:"token"`
			}
			if err := c.Post("/auth/login", creds, &resp); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if resp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to authenticate as")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	cmd.Flags().BoolVar(&register, "register", false, "Register the user before logging in")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			existed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !existed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
