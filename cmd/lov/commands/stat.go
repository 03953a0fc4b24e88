package commands

import (
	"fmt"
	"io"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat OID",
	Short: "Print the length of a large object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		oid := types.OID(args[0])

		return withSession(ctx, func(sess *lofs.Session) error {
			h, err := sess.Open(ctx, oid, types.ModeRead)
			if err != nil {
				return err
			}

			// 长度 = seek 到尾部之后的 tell
			if _, err := sess.Seek(ctx, h, 0, io.SeekEnd); err != nil {
				return err
			}
			size, err := sess.Tell(h)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d\n", oid, size)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
