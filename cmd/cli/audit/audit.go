package audit

import (
	"net/url"

	"github.com/crucial707/ammotrack/cmd/cli/client"
	"github.com/crucial707/ammotrack/cmd/cli/inventory"
	"github.com/spf13/cobra"
)

func InitAudit(rootCmd *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log (admin)",
	}
	auditCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(auditCmd)
}

func exportCmd() *cobra.Command {
	var out, resourceType, status, username string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the audit log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			for k, v := range map[string]string{"resource_type": resourceType, "status": status, "username": username} {
				if v != "" {
					q.Set(k, v)
				}
			}
			return inventory.Download(c, cmd.OutOrStdout(), "/audit/export.csv?"+q.Encode(), out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&resourceType, "resource-type", "", "Only entries for this resource type")
	cmd.Flags().StringVar(&status, "status", "", "success or failure")
	cmd.Flags().StringVar(&username, "username", "", "Only entries by this user")
	return cmd
}
