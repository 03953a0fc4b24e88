// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"

	"lovault/pkg/lofs"
	"lovault/pkg/lostore"
	"lovault/pkg/lostore/cache"
	"lovault/pkg/lostore/disk"
	"lovault/pkg/lostore/s3"
	"lovault/pkg/lostore/sqlpage"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有 Store 单例；每个事务再从它这里领自己的 Session。
type App struct {
	Store lostore.Store
	Log   *slog.Logger
}

// NewApp 是工厂函数，按 Viper 配置组装存储栈
func NewApp(ctx context.Context) (*App, error) {
	var store lostore.Store
	var err error

	// 1. 按类型初始化后端 (Dependency Injection)
	switch backend := viper.GetString("storage.type"); backend {
	case "disk":
		store, err = disk.NewAdapter(viper.GetString("storage.path"))
		if err != nil {
			return nil, fmt.Errorf("failed to init disk storage: %w", err)
		}

	case "sql":
		db, derr := sqlpage.NewDB(ctx, sqlpage.Config{
			Driver:   viper.GetString("database.driver"),
			Path:     viper.GetString("database.path"),
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
		})
		if derr != nil {
			return nil, fmt.Errorf("failed to init sql storage: %w", derr)
		}
		store = sqlpage.NewStore(db)

	case "s3":
		store, err = s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 storage: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown storage.type: %q", backend)
	}

	// 2. 可选的 Redis 读缓存装饰层
	if viper.GetBool("cache.enabled") {
		store, err = cache.NewCachedStore(store, cache.Config{
			RedisURL: viper.GetString("cache.redis_url"),
			TTL:      viper.GetDuration("cache.ttl"),
			MaxBytes: viper.GetInt64("cache.max_object_bytes"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
	}

	return &App{
		Store: store,
		Log:   slog.Default(),
	}, nil
}

// NewSession 为一个事务开一张句柄表。
// 调用方负责在事务结束时调 AtEOXact，无论成败。
func (a *App) NewSession() *lofs.Session {
	return lofs.NewSession(a.Store, lofs.Config{
		ServerSideCopy: viper.GetBool("security.server_side_copy"),
		Logger:         a.Log,
	})
}
