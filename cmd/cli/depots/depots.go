package depots

import (
	"fmt"
	"net/url"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/output"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/spf13/cobra"
)

// InitDepots registers the depots command group.
func InitDepots(rootCmd *cobra.Command) {
	depotsCmd := &cobra.Command{
		Use:   "depots",
		Short: "Manage depots",
	}
	depotsCmd.AddCommand(listDepotsCmd(), createDepotCmd(), deleteDepotCmd())
	rootCmd.AddCommand(depotsCmd)
}

func listDepotsCmd() *cobra.Command {
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List depots",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{"limit": {"200"}}
			if status != "" {
				q.Set("status", status)
			}
			var page client.Page[models.Depot]
			if err := c.Get("/depots?"+q.Encode(), &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, d := range page.Items {
				rows = append(rows, []any{d.ID, d.Name, d.Location, d.Capacity, d.Status})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Location", "Capacity", "Status"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active, inactive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func createDepotCmd() *cobra.Command {
	var d models.Depot

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a depot",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var out models.Depot
			if err := c.Post("/depots", d, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created depot %s (%s).\n", out.ID, out.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&d.ID, "id", "", "Depot ID, e.g. DEPOT-A (generated when empty)")
	cmd.Flags().StringVar(&d.Name, "name", "", "Depot name")
	cmd.Flags().StringVar(&d.Location, "location", "", "Location")
	cmd.Flags().IntVar(&d.Capacity, "capacity", 0, "Storage capacity")
	cmd.Flags().StringVar(&d.Status, "status", models.DepotActive, "Status (active, inactive)")
	cmd.Flags().StringVar(&d.Notes, "notes", "", "Notes")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func deleteDepotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a depot that holds no inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Delete("/depots/" + url.PathEscape(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Depot %s deleted.\n", args[0])
			return nil
		},
	}
}
