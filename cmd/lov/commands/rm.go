package commands

import (
	"fmt"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm OID",
	Short: "Delete a large object from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		oid := types.OID(args[0])

		return withSession(cmd.Context(), func(sess *lofs.Session) error {
			if err := sess.Unlink(cmd.Context(), oid); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", oid)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
