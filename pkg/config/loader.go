package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 → ./.lov → ~/.lov
		viper.AddConfigPath(".")
		viper.AddConfigPath(".lov")
		viper.AddConfigPath(filepath.Join(home, ".lov"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (LOV_STORAGE_TYPE 等)
	viper.SetEnvPrefix("LOV")
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错 (还有默认值和环境变量)；格式错才是错
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	wd, _ := os.Getwd()

	// 存储默认值：磁盘后端
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", filepath.Join(wd, ".lov", "objects"))

	// SQL 页存储默认值
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", filepath.Join(wd, ".lov", "lovault.db"))
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// S3 归档层默认值
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.bucket", "lovault")

	// Redis 读缓存默认关闭
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.max_object_bytes", 4<<20)

	// 服务端导入/导出权限：默认不给
	viper.SetDefault("security.server_side_copy", false)
}
