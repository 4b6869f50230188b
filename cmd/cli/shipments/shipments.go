package shipments

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/output"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/spf13/cobra"
)

func InitShipments(rootCmd *cobra.Command) {
	shipmentsCmd := &cobra.Command{
		Use:   "shipments",
		Short: "Transfers, receipts and dispatches",
	}
	shipmentsCmd.AddCommand(listShipmentsCmd(), createShipmentCmd(), statusCmd())
	rootCmd.AddCommand(shipmentsCmd)
}

func listShipmentsCmd() *cobra.Command {
	var status, typ, depot string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shipments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{"limit": {"200"}}
			for k, v := range map[string]string{"status": status, "type": typ, "depot_id": depot} {
				if v != "" {
					q.Set(k, v)
				}
			}
			var page client.Page[models.Shipment]
			if err := c.Get("/shipments?"+q.Encode(), &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, s := range page.Items {
				rows = append(rows, []any{s.ID, s.Type, s.FromDepotID, s.ToDepotID, FormatItems(s.Items), s.Status, s.CreatedAt.Format("2006-01-02")})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Type", "From", "To", "Items", "Status", "Created"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&typ, "type", "", "Filter by type (transfer, receipt, dispatch)")
	cmd.Flags().StringVar(&depot, "depot", "", "Shipments leaving or arriving at this depot")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func createShipmentCmd() *cobra.Command {
	var s models.Shipment
	var items []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending shipment",
		Example: `  ammotrack shipments create --type transfer --from DEPOT-A --to DEPOT-B --item ammunition:LOT-9MM-1:500
  ammotrack shipments create --type receipt --to DEPOT-A --supplier Acme --item ammunition:LOT-556-2:2000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := ParseItems(items)
			if err != nil {
				return err
			}
			s.Items = parsed
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var out models.Shipment
			if err := c.Post("/shipments", s, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s shipment %s (%s).\n", out.Type, out.ID, out.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&s.Type, "type", models.ShipmentTransfer, "transfer, receipt or dispatch")
	cmd.Flags().StringVar(&s.FromDepotID, "from", "", "Source depot (transfer, dispatch)")
	cmd.Flags().StringVar(&s.ToDepotID, "to", "", "Destination depot (transfer, receipt)")
	cmd.Flags().StringVar(&s.Supplier, "supplier", "", "Supplier (receipt)")
	cmd.Flags().StringVar(&s.Notes, "notes", "", "Notes")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item_type:item_id:quantity (repeatable)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status [id] [in_transit|delivered|cancelled]",
		Short:     "Move a shipment to a new status",
		Long:      "Marking a shipment delivered applies its stock movements; it fails without changes when stock is short.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{models.ShipmentInTransit, models.ShipmentDelivered, models.ShipmentCancelled},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var out models.Shipment
			path := "/shipments/" + url.PathEscape(args[0]) + "/status"
			if err := c.Post(path, map[string]string{"status": args[1]}, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shipment %s is now %s.\n", out.ID, out.Status)
			return nil
		},
	}
}

// ParseItems reads "item_type:item_id:quantity" values.
func ParseItems(specs []string) ([]models.ShipmentItem, error) {
	items := make([]models.ShipmentItem, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("item %q: want item_type:item_id:quantity", spec)
		}
		qty, err := strconv.Atoi(parts[2])
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("item %q: quantity must be a positive whole number", spec)
		}
		items = append(items, models.ShipmentItem{ItemType: parts[0], ItemID: parts[1], Quantity: qty})
	}
	return items, nil
}

func FormatItems(items []models.ShipmentItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s %s x%d", it.ItemType, it.ItemID, it.Quantity))
	}
	return strings.Join(parts, "; ")
}
