package main

import (
	"fmt"
	"os"

	"github.com/crucial707/ammotrack/cmd/cli/audit"
	"github.com/crucial707/ammotrack/cmd/cli/auth"
	"github.com/crucial707/ammotrack/cmd/cli/depots"
	"github.com/crucial707/ammotrack/cmd/cli/importer"
	"github.com/crucial707/ammotrack/cmd/cli/inventory"
	"github.com/crucial707/ammotrack/cmd/cli/planning"
	"github.com/crucial707/ammotrack/cmd/cli/root"
	"github.com/crucial707/ammotrack/cmd/cli/shipments"
	"github.com/crucial707/ammotrack/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	depots.InitDepots(rootCmd)
	inventory.InitInventory(rootCmd)
	shipments.InitShipments(rootCmd)
	planning.InitPlanning(rootCmd)
	audit.InitAudit(rootCmd)
	importer.InitImport(rootCmd)
	users.InitUsers(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
