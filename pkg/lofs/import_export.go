package lofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"lovault/pkg/types"
)

const (
	// copyBufSize 是导入/导出的拷贝块大小
	copyBufSize = 1024

	// maxPathLen 是路径长度上限。超长路径被截断而不是报错 ——
	// 这是刻意的策略，和原型保持一致。
	maxPathLen = 8191
)

// requireCopyPriv 是 Import/Export 共用的权限门
func (s *Session) requireCopyPriv() error {
	if allowDangerousLOFuncs || s.serverSideCopy {
		return nil
	}
	return fmt.Errorf("%w: enable security.server_side_copy or build with the lovdangerous tag", ErrPermission)
}

// clampPath 把超长路径截断到 maxPathLen 字节
func clampPath(path string) string {
	if len(path) > maxPathLen {
		return path[:maxPathLen]
	}
	return path
}

// Import 把一个普通文件整体拷进存储，返回新对象的 OID。
//
// 走的是存储层直通路径，不占用句柄表。任何一块的短写都是致命的
// (ErrShortCopy)，整个导入作废。
func (s *Session) Import(ctx context.Context, path string) (types.OID, error) {
	if err := s.requireCopyPriv(); err != nil {
		return "", err
	}
	path = clampPath(path)

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("import: can't open file %q: %w", path, err)
	}
	defer f.Close()

	desc, err := s.store.Create(ctx, types.ModeRead|types.ModeWrite)
	if err != nil {
		return "", fmt.Errorf("%w: import %q: %v", ErrStoreOpen, path, err)
	}
	oid := desc.OID()

	buf := make([]byte, copyBufSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			wn, werr := desc.Write(ctx, buf[:n])
			if werr != nil {
				desc.Close(ctx)
				return "", fmt.Errorf("import %q: %w", path, werr)
			}
			if wn < n {
				desc.Close(ctx)
				return "", fmt.Errorf("%w: import %q: wrote %d of %d bytes", ErrShortCopy, path, wn, n)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			desc.Close(ctx)
			return "", fmt.Errorf("import: error while reading %q: %w", path, err)
		}
	}

	if err := desc.Close(ctx); err != nil {
		return "", fmt.Errorf("import %q: close object: %w", path, err)
	}
	return oid, nil
}

// Export 把一个大对象整体拷到普通文件。
//
// 导出文件的权限是放宽过的 0660 (属主+属组可读写，但绝不对世界
// 开放写)，只对这一个文件生效，不影响进程的默认掩码。
func (s *Session) Export(ctx context.Context, oid types.OID, path string) error {
	if err := s.requireCopyPriv(); err != nil {
		return err
	}
	path = clampPath(path)

	desc, err := s.store.Open(ctx, oid, types.ModeRead)
	if err != nil {
		return fmt.Errorf("%w: export %s: %v", ErrStoreOpen, oid, err)
	}
	defer desc.Close(ctx)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0660)
	if err != nil {
		return fmt.Errorf("export: can't open file %q: %w", path, err)
	}

	buf := make([]byte, copyBufSize)
	for {
		n, err := desc.Read(ctx, buf)
		if err != nil {
			f.Close()
			return fmt.Errorf("export %s: %w", oid, err)
		}
		if n == 0 {
			break // 对象读空
		}

		wn, werr := f.Write(buf[:n])
		if werr != nil {
			f.Close()
			return fmt.Errorf("export: error while writing %q: %w", path, werr)
		}
		if wn < n {
			f.Close()
			return fmt.Errorf("%w: export %q: wrote %d of %d bytes", ErrShortCopy, path, wn, n)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %q: %w", path, err)
	}
	return nil
}
