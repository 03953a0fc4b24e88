package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/redis/go-redis/v9"
)

// CachedStore 是一个装饰器，它为底层的 lostore.Store 添加 Redis 读缓存。
// 只读打开的小对象整体缓存；写打开和删除都会让缓存失效。
// 任何 Redis 故障都降级为直连底层存储 (fail-open)，绝不拖垮主流程。
type CachedStore struct {
	backend  lostore.Store
	client   *redis.Client
	ttl      time.Duration
	maxBytes int64 // 超过这个大小的对象不进缓存 (Redis 内存宝贵)
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 缓存过期时间 (例如 24h)
	MaxBytes int64         // 整体缓存的对象大小上限
}

// NewCachedStore 接收 Config 结构体，而不是散乱的参数
func NewCachedStore(backend lostore.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 << 20 // 4MB
	}

	return &CachedStore{
		backend:  backend,
		client:   client,
		ttl:      cfg.TTL,
		maxBytes: cfg.MaxBytes,
	}, nil
}

// cacheKey 生成 Redis Key，添加前缀防止冲突
func (s *CachedStore) cacheKey(oid types.OID) string {
	return "lov:obj:" + string(oid)
}

func (s *CachedStore) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (lostore.Descriptor, error) {
	// 写模式：缓存副本马上就会过期，先失效再透传
	if mode.CanWrite() {
		if err := s.client.Del(ctx, s.cacheKey(oid)).Err(); err != nil {
			slog.Warn("redis invalidate failed", "oid", oid, "err", err)
		}
		return s.backend.Open(ctx, oid, mode)
	}

	// 1. 查 Redis
	data, err := s.client.Get(ctx, s.cacheKey(oid)).Bytes()
	if err == nil {
		// Cache Hit! 整个对象都在内存里，读/Seek 不再触达后端
		return &memDescriptor{oid: oid, data: data}, nil
	}
	if err != redis.Nil {
		// 架构决策：缓存故障降级 (Cache Failure Fallback)
		// Redis 挂了就当没有缓存，直接走底层存储
		slog.Warn("redis get failed, falling through", "oid", oid, "err", err)
	}

	// 2. 缓存未命中，打开底层描述符
	desc, err := s.backend.Open(ctx, oid, mode)
	if err != nil {
		return nil, err
	}

	// 3. 小对象整体读出来回填缓存；大对象直接用后端描述符
	size, err := desc.Seek(ctx, 0, io.SeekEnd)
	if err != nil {
		desc.Close(ctx)
		return nil, err
	}
	if _, err := desc.Seek(ctx, 0, io.SeekStart); err != nil {
		desc.Close(ctx)
		return nil, err
	}
	if size > s.maxBytes {
		return desc, nil
	}

	data, err = readAll(ctx, desc, size)
	if err != nil {
		desc.Close(ctx)
		return nil, err
	}
	if err := desc.Close(ctx); err != nil {
		return nil, err
	}

	// 回填失败不致命，下次再说
	if err := s.client.Set(ctx, s.cacheKey(oid), data, s.ttl).Err(); err != nil {
		slog.Warn("redis cache fill failed", "oid", oid, "err", err)
	}

	return &memDescriptor{oid: oid, data: data}, nil
}

func (s *CachedStore) Create(ctx context.Context, mode types.OpenMode) (lostore.Descriptor, error) {
	// 新对象还没有缓存副本，直接透传
	return s.backend.Create(ctx, mode)
}

func (s *CachedStore) Delete(ctx context.Context, oid types.OID) error {
	if err := s.client.Del(ctx, s.cacheKey(oid)).Err(); err != nil {
		slog.Warn("redis invalidate failed", "oid", oid, "err", err)
	}
	return s.backend.Delete(ctx, oid)
}

// readAll 把描述符从头到尾读完 (约定读空返回 0, nil)
func readAll(ctx context.Context, desc lostore.Descriptor, size int64) ([]byte, error) {
	data := make([]byte, 0, size)
	buf := make([]byte, 32*1024)
	for {
		n, err := desc.Read(ctx, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return data, nil
		}
		data = append(data, buf[:n]...)
	}
}
