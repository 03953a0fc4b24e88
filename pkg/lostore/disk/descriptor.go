package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"lovault/pkg/lostore"
	"lovault/pkg/types"
)

// descriptor 包装一个 *os.File，游标自己管 (不用文件自带的 offset)。
// 这样 Tell 是纯内存读取，Read/Write 用 ReadAt/WriteAt 定位。
type descriptor struct {
	file   *os.File
	oid    types.OID
	mode   types.OpenMode
	pos    int64
	closed bool
}

var errClosed = errors.New("descriptor already closed")

func (d *descriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanRead() {
		return 0, fmt.Errorf("object %s not open for reading", d.oid)
	}

	n, err := d.file.ReadAt(p, d.pos)
	d.pos += int64(n)

	// 读到文件尾：约定返回 (n, nil)，n 可以是 0
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (d *descriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanWrite() {
		return 0, lostore.ErrReadOnly
	}

	// 游标可以在 Seek 之后停在文件尾之外；WriteAt 会自动产生空洞，
	// 空洞读回来是零字节 (OS 稀疏文件语义)。
	n, err := d.file.WriteAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

func (d *descriptor) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, errClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.pos
	case io.SeekEnd:
		info, err := d.file.Stat()
		if err != nil {
			return 0, err
		}
		base = info.Size()
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

func (d *descriptor) Tell() int64 { return d.pos }

func (d *descriptor) Close(ctx context.Context) error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	return d.file.Close()
}

// CleanupScans 对扁平文件是空操作：没有需要收尾的扫描状态
func (d *descriptor) CleanupScans(ctx context.Context) error { return nil }

func (d *descriptor) OID() types.OID       { return d.oid }
func (d *descriptor) Mode() types.OpenMode { return d.mode }
