package lostore

import (
	"context"
	"errors"

	"lovault/pkg/types"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrReadOnly 对只读描述符调用写操作
	ErrReadOnly = errors.New("descriptor is read-only")
	// ErrUnsupported 后端不支持该操作 (比如 S3 归档层不支持原地写)
	ErrUnsupported = errors.New("operation not supported by this backend")
)

// Descriptor 是 Store 在 Open/Create 时返回的打开对象引用。
// 它携带一个隐式游标 (cursor position)，所有读写都从游标处进行。
//
// 读到对象末尾时 Read 返回 (0, nil) —— 不是 io.EOF。
// 这让上层的转发逻辑不需要区分“读空”和“真错误”。
type Descriptor interface {
	Read(ctx context.Context, p []byte) (int, error)
	Write(ctx context.Context, p []byte) (int, error)

	// Seek 语义同 io.Seeker (io.SeekStart/SeekCurrent/SeekEnd)，
	// 返回移动后的绝对位置。
	Seek(ctx context.Context, offset int64, whence int) (int64, error)

	// Tell 返回当前游标位置。纯内存操作，不触达后端。
	Tell() int64

	Close(ctx context.Context) error

	// CleanupScans 在事务提交前收尾描述符持有的扫描状态。
	// 只在提交路径上调用；回滚时描述符可能指向已经无效的数据，
	// 除了被遗忘之外不允许再碰它。
	CleanupScans(ctx context.Context) error

	// OID 返回该描述符对应的持久对象标识
	OID() types.OID
	Mode() types.OpenMode
}

// Store defines the interface for a large-object backend.
// Implementations can be local disk, a SQL page store, or S3.
type Store interface {
	// Open 打开一个已存在的对象。对象不存在时返回 ErrNotFound。
	Open(ctx context.Context, oid types.OID, mode types.OpenMode) (Descriptor, error)

	// Create 创建一个新对象并返回其打开的描述符。
	// OID 由 Store 分配，通过 Descriptor.OID() 读取。
	Create(ctx context.Context, mode types.OpenMode) (Descriptor, error)

	// Delete 删除持久对象。注意：已打开的描述符不会被联动失效，
	// 后续对它们的操作由各后端自行报错 (上层有意保留了这个语义)。
	Delete(ctx context.Context, oid types.OID) error
}
