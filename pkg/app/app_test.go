package app

import (
	"context"
	"path/filepath"
	"testing"

	"lovault/pkg/types"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupViper 给测试一个干净的配置环境 (viper 是全局的，记得还原)
func setupViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("storage.type", "disk")
	viper.Set("storage.path", filepath.Join(t.TempDir(), "objects"))
	viper.Set("cache.enabled", false)
	viper.Set("security.server_side_copy", true)
}

func TestNewApp_DiskBackendEndToEnd(t *testing.T) {
	setupViper(t)
	ctx := context.Background()

	a, err := NewApp(ctx)
	require.NoError(t, err)

	// 组装出来的栈跑一个完整的事务
	sess := a.NewSession()
	oid, err := sess.Create(ctx, types.ModeRead|types.ModeWrite)
	require.NoError(t, err)

	h, err := sess.Open(ctx, oid, types.ModeRead|types.ModeWrite)
	require.NoError(t, err)
	_, err = sess.Write(ctx, h, []byte("wired"))
	require.NoError(t, err)

	// 不显式 Close：钩子负责收尾
	sess.AtEOXact(ctx, true)

	// 新事务还能读到提交的数据
	sess2 := a.NewSession()
	h2, err := sess2.Open(ctx, oid, types.ModeRead)
	require.NoError(t, err)
	got, err := sess2.Read(ctx, h2, 16)
	require.NoError(t, err)
	assert.Equal(t, "wired", string(got))
	sess2.AtEOXact(ctx, true)
}

func TestNewApp_UnknownBackend(t *testing.T) {
	setupViper(t)
	viper.Set("storage.type", "floppy")

	_, err := NewApp(context.Background())
	assert.Error(t, err)
}
