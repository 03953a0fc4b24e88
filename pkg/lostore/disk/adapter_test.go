package disk

import (
	"context"
	"io"
	"testing"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAdapter 构建隔离的测试环境 (每个测试一个临时目录)
func setupAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(t.TempDir())
	require.NoError(t, err)
	return a
}

func TestAdapter_CreateWriteRead(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	// 1. 创建并写入
	d, err := a.Create(ctx, types.ModeRead|types.ModeWrite)
	require.NoError(t, err)
	oid := d.OID()
	require.False(t, oid.IsZero())

	n, err := d.Write(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, d.Close(ctx))

	// 2. 重新以只读打开并读回
	d2, err := a.Open(ctx, oid, types.ModeRead)
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err = d2.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	// 3. 读到尾部返回 (0, nil)，不是 io.EOF
	n, err = d2.Read(ctx, buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, d2.Close(ctx))
}

func TestAdapter_OpenNotFound(t *testing.T) {
	a := setupAdapter(t)
	_, err := a.Open(context.Background(), "deadbeef", types.ModeRead)
	assert.ErrorIs(t, err, lostore.ErrNotFound)
}

func TestAdapter_ReadOnlyWriteRejected(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	d, err := a.Create(ctx, types.ModeRead|types.ModeWrite)
	require.NoError(t, err)
	oid := d.OID()
	require.NoError(t, d.Close(ctx))

	ro, err := a.Open(ctx, oid, types.ModeRead)
	require.NoError(t, err)
	defer ro.Close(ctx)

	_, err = ro.Write(ctx, []byte("nope"))
	assert.ErrorIs(t, err, lostore.ErrReadOnly)
}

func TestAdapter_SeekTellAndSparseGap(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	d, err := a.Create(ctx, types.ModeRead|types.ModeWrite)
	require.NoError(t, err)
	defer d.Close(ctx)

	// 写 "abc"，然后跳过一个空洞写 "xyz"
	_, err = d.Write(ctx, []byte("abc"))
	require.NoError(t, err)

	pos, err := d.Seek(ctx, 10, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 10, pos)
	assert.EqualValues(t, 10, d.Tell())

	_, err = d.Write(ctx, []byte("xyz"))
	require.NoError(t, err)

	// SeekEnd + Tell 给出总长度
	end, err := d.Seek(ctx, 0, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 13, end)
	assert.EqualValues(t, 13, d.Tell())

	// 空洞部分读回零字节 (稀疏文件语义)
	_, err = d.Seek(ctx, 0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 13)
	n, err := d.Read(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, 13, n)
	assert.Equal(t, []byte("abc"), buf[:3])
	assert.Equal(t, make([]byte, 7), buf[3:10], "gap should read back as zeros")
	assert.Equal(t, []byte("xyz"), buf[10:])

	// 负数位置被拒绝
	_, err = d.Seek(ctx, -1, io.SeekStart)
	assert.Error(t, err)
}

func TestAdapter_DeleteAndMeta(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	d, err := a.Create(ctx, types.ModeWrite)
	require.NoError(t, err)
	oid := d.OID()
	require.NoError(t, d.Close(ctx))

	// sidecar 元数据记录了创建模式
	created, mode, err := a.Meta(oid)
	require.NoError(t, err)
	assert.False(t, created.IsZero())
	assert.Equal(t, types.ModeWrite, mode)

	require.NoError(t, a.Delete(ctx, oid))

	_, err = a.Open(ctx, oid, types.ModeRead)
	assert.ErrorIs(t, err, lostore.ErrNotFound)
	_, _, err = a.Meta(oid)
	assert.ErrorIs(t, err, lostore.ErrNotFound)

	// 删两次：第二次报 NotFound
	assert.ErrorIs(t, a.Delete(ctx, oid), lostore.ErrNotFound)
}

func TestDescriptor_DoubleClose(t *testing.T) {
	a := setupAdapter(t)
	ctx := context.Background()

	d, err := a.Create(ctx, types.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx))
	assert.Error(t, d.Close(ctx))
}
