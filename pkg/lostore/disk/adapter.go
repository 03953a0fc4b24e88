package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Adapter 实现了 lostore.Store 接口，一个对象一个文件。
type Adapter struct {
	rootPath string // 比如: /home/user/.lov/objects
}

// objectMeta 是随对象落盘的 sidecar 元数据 (CBOR 编码)。
// 对象字节本身是裸的，创建信息放在旁边的 .meta 文件里。
type objectMeta struct {
	CreatedAt  int64          `cbor:"1,keyasint"`
	CreateMode types.OpenMode `cbor:"2,keyasint"`
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

// layout 返回 OID 对应的物理路径
// 策略：使用前 2 个字符作为子目录 (Sharding)
// Example: oid "aabbcc..." -> root/aa/bbcc...
func (s *Adapter) layout(oid types.OID) string {
	str := string(oid)
	if len(str) < 2 {
		return filepath.Join(s.rootPath, str)
	}
	return filepath.Join(s.rootPath, str[:2], str[2:])
}

func (s *Adapter) metaPath(oid types.OID) string {
	return s.layout(oid) + ".meta"
}

func (s *Adapter) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (lostore.Descriptor, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}

	flag := os.O_RDONLY
	if mode.CanWrite() {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(s.layout(oid), flag, 0)
	if os.IsNotExist(err) {
		return nil, lostore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &descriptor{file: f, oid: oid, mode: mode}, nil
}

func (s *Adapter) Create(ctx context.Context, mode types.OpenMode) (lostore.Descriptor, error) {
	// OID 在这里由 Store 分配 —— uuid 去掉横线，方便 2 字符分片
	oid := types.OID(strings.ReplaceAll(uuid.New().String(), "-", ""))
	targetPath := s.layout(oid)

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return nil, err
	}

	// O_EXCL: uuid 撞车的概率可以忽略，但撞上了宁可报错也不要覆盖
	f, err := os.OpenFile(targetPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create object file: %w", err)
	}

	// 写 sidecar 元数据。失败则回滚刚创建的对象文件。
	if err := s.writeMeta(oid, objectMeta{
		CreatedAt:  time.Now().Unix(),
		CreateMode: mode,
	}); err != nil {
		f.Close()
		os.Remove(targetPath)
		return nil, fmt.Errorf("failed to write object meta: %w", err)
	}

	return &descriptor{file: f, oid: oid, mode: mode}, nil
}

func (s *Adapter) Delete(ctx context.Context, oid types.OID) error {
	err := os.Remove(s.layout(oid))
	if os.IsNotExist(err) {
		return lostore.ErrNotFound
	}
	if err != nil {
		return err
	}
	// sidecar 跟着对象走，删不掉也不算失败 (对象本体已经没了)
	os.Remove(s.metaPath(oid))
	return nil
}

func (s *Adapter) writeMeta(oid types.OID, m objectMeta) error {
	data, err := cbor.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(oid), data, 0644)
}

// Meta 读取对象的 sidecar 元数据
func (s *Adapter) Meta(oid types.OID) (created time.Time, mode types.OpenMode, err error) {
	data, err := os.ReadFile(s.metaPath(oid))
	if os.IsNotExist(err) {
		return time.Time{}, 0, lostore.ErrNotFound
	}
	if err != nil {
		return time.Time{}, 0, err
	}

	var m objectMeta
	if err := cbor.Unmarshal(data, &m); err != nil {
		return time.Time{}, 0, fmt.Errorf("corrupt object meta: %w", err)
	}
	return time.Unix(m.CreatedAt, 0), m.CreateMode, nil
}
