package users

import (
	"fmt"
	"net/url"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/output"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// CLI Command Init
// ==========================

// InitUsers registers the admin-only user management commands.
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage API users (admin)",
	}
	usersCmd.AddCommand(listUsersCmd(), createUserCmd(), deleteUserCmd())
	rootCmd.AddCommand(usersCmd)
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var page struct {
				client.Page[models.User]
				Total int `json:"total"`
			}
			if err := c.Get("/users?limit="+url.QueryEscape(fmt.Sprint(limit)), &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, u := range page.Items {
				rows = append(rows, []any{u.ID, u.Username, u.Role})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Role"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(page.Items), page.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 200, "Maximum users to list")
	return cmd
}

// ==========================
// Create User
// ==========================
func createUserCmd() *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var u models.User
			body := map[string]string{"username": username, "password": password, "role": role}
			if err := c.Post("/users", body, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s) with role %s.\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (8+ characters)")
	cmd.Flags().StringVar(&role, "role", models.RoleViewer, "Role: admin or viewer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ==========================
// Delete User
// ==========================
func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Delete("/users/" + url.PathEscape(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted.\n", args[0])
			return nil
		},
	}
}
