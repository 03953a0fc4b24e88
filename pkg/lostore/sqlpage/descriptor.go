package sqlpage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"lovault/pkg/lostore"
	"lovault/pkg/types"
)

// descriptor 是 SQL 页存储上的打开对象。
// 游标和长度都在内存里维护；页内容按需查库。
type descriptor struct {
	store  *Store
	oid    types.OID
	mode   types.OpenMode
	pos    int64
	size   int64
	closed bool

	// 顺序读的单页缓存：连续小块读同一页时省掉重复查询。
	// 这是描述符持有的扫描状态，CleanupScans 负责丢弃它。
	scanPage   *Page
	scanPageNo int64
}

var errClosed = errors.New("descriptor already closed")

func (d *descriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanRead() {
		return 0, fmt.Errorf("object %s not open for reading", d.oid)
	}

	// 不读过对象尾部：剩多少读多少，读空返回 (0, nil)
	remaining := d.size - d.pos
	if remaining <= 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	total := 0
	for len(p) > 0 {
		pageNo := d.pos / PageSize
		off := d.pos % PageSize

		page, err := d.loadScanPage(ctx, pageNo)
		if err != nil {
			return total, err
		}

		// 本次最多拷到页尾
		n := PageSize - int(off)
		if n > len(p) {
			n = len(p)
		}

		if page == nil {
			// 缺页 = 零页 (稀疏语义)；p 由调用方分配，需要显式清零
			for i := 0; i < n; i++ {
				p[i] = 0
			}
		} else {
			// 页本身可能比 PageSize 短，短出来的部分也是零
			for i := 0; i < n; i++ {
				if idx := int(off) + i; idx < len(page.Data) {
					p[i] = page.Data[idx]
				} else {
					p[i] = 0
				}
			}
		}

		d.pos += int64(n)
		total += n
		p = p[n:]
	}
	return total, nil
}

func (d *descriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanWrite() {
		return 0, lostore.ErrReadOnly
	}

	total := 0
	for len(p) > 0 {
		pageNo := d.pos / PageSize
		off := int(d.pos % PageSize)

		n := PageSize - off
		if n > len(p) {
			n = len(p)
		}

		// 读-改-写一页。游标跳过的页根本不落库，读侧自然零填充。
		page, err := d.store.fetchPage(ctx, d.oid, pageNo)
		if err != nil {
			return total, err
		}
		if page == nil {
			page = &Page{OID: string(d.oid), PageNo: pageNo}
		}

		// 页内空洞 (旧页尾 < 写入起点) 补零
		if len(page.Data) < off+n {
			grown := make([]byte, off+n)
			copy(grown, page.Data)
			page.Data = grown
		}
		copy(page.Data[off:off+n], p[:n])

		if err := d.store.upsertPage(ctx, page); err != nil {
			return total, err
		}

		// 写穿了缓存页就让缓存失效
		if d.scanPage != nil && d.scanPageNo == pageNo {
			d.scanPage = nil
		}

		d.pos += int64(n)
		total += n
		p = p[n:]
	}

	if d.pos > d.size {
		d.size = d.pos
	}
	return total, nil
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
		base = d.size
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
	d.scanPage = nil
	return nil
}

// CleanupScans 丢弃描述符缓存的页。提交路径上调用，保证缓存页
// 不会跨事务边界存活。
func (d *descriptor) CleanupScans(ctx context.Context) error {
	d.scanPage = nil
	return nil
}

func (d *descriptor) OID() types.OID       { return d.oid }
func (d *descriptor) Mode() types.OpenMode { return d.mode }

func (d *descriptor) loadScanPage(ctx context.Context, pageNo int64) (*Page, error) {
	if d.scanPage != nil && d.scanPageNo == pageNo {
		return d.scanPage, nil
	}
	page, err := d.store.fetchPage(ctx, d.oid, pageNo)
	if err != nil {
		return nil, err
	}
	d.scanPage = page
	d.scanPageNo = pageNo
	return page, nil
}
