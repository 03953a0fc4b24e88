package lofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// fakeStore (间谍存储)
// 内存实现 + 调用计数：生命周期测试要验证 CleanupScans/Close
// 到底被叫了几次，以及每次 Write 的块大小。
// -----------------------------------------------------------------------------

type fakeObject struct {
	data []byte
}

type fakeStore struct {
	objects map[types.OID]*fakeObject
	seq     int

	cleanupCalls int
	closeCalls   int
	writeSizes   []int // 每次描述符 Write 的字节数 (导入分块验证用)

	// shortWrite: 每次 Write 故意少写一个字节，模拟存储短写
	shortWrite bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[types.OID]*fakeObject)}
}

func (s *fakeStore) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (lostore.Descriptor, error) {
	obj, ok := s.objects[oid]
	if !ok {
		return nil, lostore.ErrNotFound
	}
	return &fakeDescriptor{store: s, obj: obj, oid: oid, mode: mode}, nil
}

func (s *fakeStore) Create(ctx context.Context, mode types.OpenMode) (lostore.Descriptor, error) {
	s.seq++
	oid := types.OID(fmt.Sprintf("obj-%04d", s.seq))
	obj := &fakeObject{}
	s.objects[oid] = obj
	return &fakeDescriptor{store: s, obj: obj, oid: oid, mode: mode}, nil
}

func (s *fakeStore) Delete(ctx context.Context, oid types.OID) error {
	if _, ok := s.objects[oid]; !ok {
		return lostore.ErrNotFound
	}
	delete(s.objects, oid)
	return nil
}

type fakeDescriptor struct {
	store  *fakeStore
	obj    *fakeObject
	oid    types.OID
	mode   types.OpenMode
	pos    int64
	closed bool
}

func (d *fakeDescriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errors.New("descriptor already closed")
	}
	if !d.mode.CanRead() {
		return 0, errors.New("not open for reading")
	}
	if d.pos >= int64(len(d.obj.data)) {
		return 0, nil
	}
	n := copy(p, d.obj.data[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *fakeDescriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errors.New("descriptor already closed")
	}
	if !d.mode.CanWrite() {
		return 0, lostore.ErrReadOnly
	}

	n := len(p)
	if d.store.shortWrite && n > 0 {
		n--
	}
	d.store.writeSizes = append(d.store.writeSizes, n)

	// Seek 过了末尾再写：空洞补零
	end := d.pos + int64(n)
	if end > int64(len(d.obj.data)) {
		grown := make([]byte, end)
		copy(grown, d.obj.data)
		d.obj.data = grown
	}
	copy(d.obj.data[d.pos:end], p[:n])
	d.pos = end
	return n, nil
}

func (d *fakeDescriptor) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, errors.New("descriptor already closed")
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.pos
	case io.SeekEnd:
		base = int64(len(d.obj.data))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fmt.Errorf("seek to negative position %d", newPos)
	}
	d.pos = newPos
	return newPos, nil
}

func (d *fakeDescriptor) Tell() int64 { return d.pos }

func (d *fakeDescriptor) Close(ctx context.Context) error {
	if d.closed {
		return errors.New("descriptor already closed")
	}
	d.closed = true
	d.store.closeCalls++
	return nil
}

func (d *fakeDescriptor) CleanupScans(ctx context.Context) error {
	d.store.cleanupCalls++
	return nil
}

func (d *fakeDescriptor) OID() types.OID       { return d.oid }
func (d *fakeDescriptor) Mode() types.OpenMode { return d.mode }

// -----------------------------------------------------------------------------
// 通用辅助函数
// -----------------------------------------------------------------------------

// setupSession 构建带内存存储的 Session (默认有拷贝权限，方便多数用例)
func setupSession(t *testing.T) (*Session, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewSession(store, Config{ServerSideCopy: true}), store
}

// mustCreateObject 造一个内容已知的对象，返回 OID
func mustCreateObject(t *testing.T, store *fakeStore, data []byte) types.OID {
	t.Helper()
	desc, err := store.Create(context.Background(), types.ModeRead|types.ModeWrite)
	require.NoError(t, err)
	_, err = desc.Write(context.Background(), data)
	require.NoError(t, err)
	require.NoError(t, desc.Close(context.Background()))
	return desc.OID()
}
