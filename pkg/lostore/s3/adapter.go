package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Adapter 实现了 lostore.Store 接口，定位是归档层 (archive tier)：
//   - 已有对象只支持只读打开，读取走 Range GET
//   - 新对象在内存里攒够了，Close 时一次 PutObject 上传
//   - 不支持对已有对象的原地写 (S3 对象本来就不可变)
type Adapter struct {
	client *s3.Client
	bucket string
}

// Config 用于初始化 Adapter
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewAdapter 初始化 S3 客户端 (适配 AWS SDK v2 最新规范)
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	// 1. 加载基础配置 (仅包含 Region 和 Credentials)
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	// 2. 创建 S3 客户端时，注入特定于 S3 的配置
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 如果指定了 Endpoint (比如 MinIO 的 localhost:9000)，则覆盖默认值
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}

		// 【关键】MinIO 必须强制使用 Path Style
		// 即: http://host:9000/bucket/key
		o.UsePathStyle = true
	})

	// 3. 确保 Bucket 存在 (本地 MinIO 场景；生产环境建议手动管理)
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &cfg.Bucket})
	if err != nil {
		_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &cfg.Bucket})
		if err != nil {
			fmt.Printf("Warning: failed to ensure bucket exists: %v\n", err)
		}
	}

	return &Adapter{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// key 将 OID 转换为 S3 Key (Sharding)
// Logic: "aabbcc..." -> "aa/bbcc..."
func (s *Adapter) key(oid types.OID) string {
	str := string(oid)
	if len(str) < 2 {
		return str
	}
	return str[:2] + "/" + str[2:]
}

func (s *Adapter) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (lostore.Descriptor, error) {
	if mode.CanWrite() {
		// 归档层不支持原地写，写请求在 Open 时就拒绝
		return nil, fmt.Errorf("%w: s3 objects are immutable, open read-only", lostore.ErrUnsupported)
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}

	// HeadObject: 既是存在性检查，也拿到对象长度 (Range 读需要它)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, lostore.ErrNotFound
		}
		return nil, fmt.Errorf("s3 head failed: %w", err)
	}

	return &readDescriptor{
		adapter: s,
		oid:     oid,
		size:    aws.ToInt64(head.ContentLength),
	}, nil
}

func (s *Adapter) Create(ctx context.Context, mode types.OpenMode) (lostore.Descriptor, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}

	oid := types.OID(strings.ReplaceAll(uuid.New().String(), "-", ""))

	// 新对象先攒在内存，Close 时一次上传
	return &writeDescriptor{
		adapter: s,
		oid:     oid,
		mode:    mode,
	}, nil
}

func (s *Adapter) Delete(ctx context.Context, oid types.OID) error {
	// DeleteObject 对不存在的 Key 也返回成功，先 Head 一下区分 NotFound
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		if isNotFound(err) {
			return lostore.ErrNotFound
		}
		return fmt.Errorf("s3 head failed: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// isNotFound 将 AWS 的各种“对象不存在”错误归一化
func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	var noKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return true
	}
	// 兼容性：某些 S3 实现可能返回 generic 404 error string
	return strings.Contains(err.Error(), "404")
}
