package commands

import (
	"fmt"
	"io"
	"os"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write OID",
	Short: "Write stdin into a large object at offset 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		oid := types.OID(args[0])

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		return withSession(ctx, func(sess *lofs.Session) error {
			h, err := sess.Open(ctx, oid, types.ModeWrite)
			if err != nil {
				return err
			}

			n, err := sess.Write(ctx, h, data)
			if err != nil {
				return err
			}
			if n < len(data) {
				return fmt.Errorf("short write: %d of %d bytes", n, len(data))
			}

			fmt.Printf("wrote %d bytes to %s\n", n, oid)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
