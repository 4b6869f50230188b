package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level ammotrack command.
var RootCmd = &cobra.Command{
	Use:           "ammotrack",
	Short:         "AmmoTrack inventory CLI",
	Long:          "Command line interface for the AmmoTrack ammunition and firearms inventory API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func GetRoot() *cobra.Command {
	return RootCmd
}
