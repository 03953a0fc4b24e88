package commands

import (
	"fmt"
	"sync"

	"lovault/pkg/lofs"
	"lovault/pkg/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importJobs int

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import files as large objects (server-side)",
	Long: `Copy each file into the store as a new large object and print "PATH OID" per file.
Requires security.server_side_copy (or a build with the lovdangerous tag).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// 每个文件一个独立事务 (Session 不允许跨执行流共享，
		// 所以并发的单位是“文件+会话”，不是句柄)
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(importJobs)

		var mu sync.Mutex
		results := make(map[string]types.OID, len(args))

		for _, path := range args {
			path := path
			g.Go(func() error {
				return withSession(ctx, func(sess *lofs.Session) error {
					oid, err := sess.Import(ctx, path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					mu.Lock()
					results[path] = oid
					mu.Unlock()
					return nil
				})
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// 按参数顺序输出，别让并发打乱了
		for _, path := range args {
			fmt.Printf("%s %s\n", path, results[path])
		}
		return nil
	},
}

func init() {
	importCmd.Flags().IntVar(&importJobs, "jobs", 4, "max concurrent imports")
	rootCmd.AddCommand(importCmd)
}
