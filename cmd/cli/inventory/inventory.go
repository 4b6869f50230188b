// Package inventory holds the ammunition and firearm commands.
package inventory

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/output"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/spf13/cobra"
)

func InitInventory(rootCmd *cobra.Command) {
	ammoCmd := &cobra.Command{
		Use:     "ammo",
		Aliases: []string{"ammunition"},
		Short:   "Ammunition lots",
	}
	ammoCmd.AddCommand(listAmmoCmd())

	firearmsCmd := &cobra.Command{
		Use:   "firearms",
		Short: "Firearms",
	}
	firearmsCmd.AddCommand(listFirearmsCmd(), exportFirearmsCmd())

	rootCmd.AddCommand(ammoCmd, firearmsCmd)
}

func listAmmoCmd() *cobra.Command {
	var depot, caliber string
	var low, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ammunition lots",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{"limit": {"200"}}
			setIf(q, "depot_id", depot)
			setIf(q, "caliber", caliber)
			if low {
				q.Set("low", "true")
			}
			var page client.Page[models.Ammunition]
			if err := c.Get("/ammunition?"+q.Encode(), &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, a := range page.Items {
				expiry := ""
				if a.ExpiryDate != nil {
					expiry = a.ExpiryDate.Format("2006-01-02")
				}
				flag := ""
				if a.IsLow() {
					flag = "LOW"
				}
				rows = append(rows, []any{a.ID, a.Name, a.Caliber, a.Type, a.DepotID, a.Quantity, a.LowStockThreshold, expiry, flag})
			}
			output.RenderTable(cmd.OutOrStdout(),
				[]string{"ID", "Name", "Caliber", "Type", "Depot", "Rounds", "Low at", "Expires", ""}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&depot, "depot", "", "Filter by depot ID")
	cmd.Flags().StringVar(&caliber, "caliber", "", "Filter by caliber")
	cmd.Flags().BoolVar(&low, "low", false, "Only lots at or below their low-stock threshold")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func listFirearmsCmd() *cobra.Command {
	var depot, caliber, status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List firearms",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{"limit": {"200"}}
			setIf(q, "depot_id", depot)
			setIf(q, "caliber", caliber)
			setIf(q, "status", status)
			var page client.Page[models.Firearm]
			if err := c.Get("/firearms?"+q.Encode(), &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, f := range page.Items {
				rows = append(rows, []any{f.ID, f.Name, f.Type, f.Caliber, f.SerialNumber, f.DepotID, f.Quantity, f.Status})
			}
			output.RenderTable(cmd.OutOrStdout(),
				[]string{"ID", "Name", "Type", "Caliber", "Serial", "Depot", "Qty", "Status"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&depot, "depot", "", "Filter by depot ID")
	cmd.Flags().StringVar(&caliber, "caliber", "", "Filter by caliber")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func exportFirearmsCmd() *cobra.Command {
	var out, depot string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download firearms as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			setIf(q, "depot_id", depot)
			return Download(c, cmd.OutOrStdout(), "/firearms/export.csv?"+q.Encode(), out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&depot, "depot", "", "Only firearms at this depot")
	return cmd
}

// Download streams a GET response to the file at dest, or to stdout when dest is empty.
func Download(c *client.Client, stdout io.Writer, path, dest string) error {
	resp, err := c.Raw(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest == "" {
		_, err = io.Copy(stdout, resp.Body)
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d bytes to %s\n", n, dest)
	return nil
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}
