package commands

import (
	"context"
	"fmt"
	"os"

	"lovault/pkg/app"
	"lovault/pkg/config"
	"lovault/pkg/lofs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	LOV *app.App
)

var rootCmd = &cobra.Command{
	Use:   "lov",
	Short: "lovault: transaction-scoped large object storage",
	// PersistentPreRunE 会在所有子命令执行前运行，统一初始化 App
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		LOV, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize lovault: %w", err)
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

// withSession 把一条命令包成一个事务：开句柄表 → 执行 → 钩子收尾。
// fn 返回 nil 按提交收尾，否则按回滚收尾；钩子两条路都必走。
func withSession(ctx context.Context, fn func(sess *lofs.Session) error) error {
	sess := LOV.NewSession()
	commit := false
	defer func() { sess.AtEOXact(ctx, commit) }()

	if err := fn(sess); err != nil {
		return err
	}
	commit = true
	return nil
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 定义全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lov/config.yaml)")

	// 2. 定义 storage 参数，并绑定到 Viper
	// 这样用户既可以在 yaml 里写，也可以用命令行覆盖
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: disk, sql or s3")
	rootCmd.PersistentFlags().String("storage-path", "", "directory for the disk backend")
	if err := viper.BindPFlag("storage.type", rootCmd.PersistentFlags().Lookup("storage-type")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}
