package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesprial/migas-go/internal/graphql"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "migas-go "+graphql.Version)
		},
	}
}
