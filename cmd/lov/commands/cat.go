package commands

import (
	"os"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat OID",
	Short: "Stream a large object to stdout",
	Long:  `Read the object through a handle and write it to stdout. Binary content can be redirected with > file.bin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		oid := types.OID(args[0])

		return withSession(ctx, func(sess *lofs.Session) error {
			h, err := sess.Open(ctx, oid, types.ModeRead)
			if err != nil {
				return err
			}
			// 不显式 Close：事务钩子会收尾

			for {
				chunk, err := sess.Read(ctx, h, 32*1024)
				if err != nil {
					return err
				}
				if len(chunk) == 0 {
					return nil // 读空
				}
				if _, err := os.Stdout.Write(chunk); err != nil {
					return err
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
