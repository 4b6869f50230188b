// Package planning holds the scenario projection and AI rebalancing commands.
package planning

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/output"
	"github.com/crucial707/ammotrack/internal/ai"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/spf13/cobra"
)

func InitPlanning(rootCmd *cobra.Command) {
	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Usage scenarios and projections",
	}
	scenariosCmd.AddCommand(listScenariosCmd(), projectCmd())
	rootCmd.AddCommand(scenariosCmd, rebalanceCmd())
}

func listScenariosCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List usage scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var page client.Page[models.UsageScenario]
			if err := c.Get("/scenarios?limit=200", &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page.Items)
			}
			rows := make([][]any, 0, len(page.Items))
			for _, s := range page.Items {
				rows = append(rows, []any{s.ID, s.Name, formatRounds(s)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Rounds per person"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func formatRounds(s models.UsageScenario) string {
	parts := make([]string, 0, len(s.RoundsPerPerson))
	for _, c := range s.Calibers() {
		parts = append(parts, fmt.Sprintf("%s=%d", c, s.RoundsPerPerson[c]))
	}
	return strings.Join(parts, ", ")
}

func projectCmd() *cobra.Command {
	var personnel int
	var depot string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "project [scenario-id]",
		Short: "Project a scenario's needs against current stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var p models.Projection
			body := map[string]any{"personnel": personnel, "depot_id": depot}
			if err := c.Post("/scenarios/"+url.PathEscape(args[0])+"/project", body, &p); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), p)
			}
			rows := make([][]any, 0, len(p.Needs))
			for _, n := range p.Needs {
				rows = append(rows, []any{n.Caliber, n.Required, n.Available, n.Shortfall})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Caliber", "Required", "Available", "Shortfall"}, rows)
			if p.Sufficient {
				fmt.Fprintln(cmd.OutOrStdout(), "Stock is sufficient.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Stock is short.")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&personnel, "personnel", 0, "Number of personnel")
	cmd.Flags().StringVar(&depot, "depot", "", "Count stock at one depot only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("personnel")
	return cmd
}

var priorityRank = map[string]int{ai.PriorityHigh: 0, ai.PriorityMedium: 1, ai.PriorityLow: 2}

func rebalanceCmd() *cobra.Command {
	var window int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Ask the AI for transfer suggestions from recent usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var out ai.RebalancingOutput
			if err := c.Post("/ai/rebalancing", map[string]int{"window_days": window}, &out); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), out)
			}
			sort.SliceStable(out.Suggestions, func(i, j int) bool {
				return priorityRank[out.Suggestions[i].Priority] < priorityRank[out.Suggestions[j].Priority]
			})
			rows := make([][]any, 0, len(out.Suggestions))
			for _, s := range out.Suggestions {
				lots := make([]string, 0, len(s.Lots))
				for _, l := range s.Lots {
					lots = append(lots, fmt.Sprintf("%s (%d)", l.AmmunitionID, l.Quantity))
				}
				rows = append(rows, []any{s.Priority, s.FromDepotID, s.ToDepotID, s.Caliber, strings.Join(lots, ", "), s.Quantity, s.Reason})
			}
			w := cmd.OutOrStdout()
			if out.Summary != "" {
				fmt.Fprintln(w, out.Summary)
			}
			output.RenderTable(w, []string{"Priority", "From", "To", "Caliber", "Lots", "Rounds", "Reason"}, rows)
			for _, d := range out.Discarded {
				fmt.Fprintf(w, "discarded: %s\n", d.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&window, "window", ai.DefaultWindowDays, "Usage window in days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
