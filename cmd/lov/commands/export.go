package commands

import (
	"fmt"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export OID FILE",
	Short: "Export a large object to a file (server-side)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oid, path := types.OID(args[0]), args[1]

		return withSession(cmd.Context(), func(sess *lofs.Session) error {
			if err := sess.Export(cmd.Context(), oid, path); err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", oid, path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
