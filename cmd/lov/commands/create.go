package commands

import (
	"fmt"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty large object and print its OID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(sess *lofs.Session) error {
			oid, err := sess.Create(cmd.Context(), types.ModeRead|types.ModeWrite)
			if err != nil {
				return err
			}
			fmt.Println(oid)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
