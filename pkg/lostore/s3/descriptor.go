package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var errClosed = errors.New("descriptor already closed")

// -----------------------------------------------------------------------------
// 1. readDescriptor: 只读描述符，读取走 Range GET
// -----------------------------------------------------------------------------

type readDescriptor struct {
	adapter *Adapter
	oid     types.OID
	pos     int64
	size    int64
	closed  bool
}

func (d *readDescriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}

	remaining := d.size - d.pos
	if remaining <= 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	// Range 是闭区间: bytes=start-end
	rng := fmt.Sprintf("bytes=%d-%d", d.pos, d.pos+int64(len(p))-1)
	resp, err := d.adapter.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.adapter.bucket),
		Key:    aws.String(d.adapter.key(d.oid)),
		Range:  aws.String(rng),
	})
	if err != nil {
		if isNotFound(err) {
			// 对象在打开之后被删了 (见 Store.Delete 的注释)
			return 0, lostore.ErrNotFound
		}
		return 0, fmt.Errorf("s3 ranged get failed: %w", err)
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fmt.Errorf("s3 body read failed: %w", err)
	}
	d.pos += int64(n)
	return n, nil
}

func (d *readDescriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	return 0, lostore.ErrReadOnly
}

func (d *readDescriptor) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, errClosed
	}
	newPos, err := resolveSeek(d.pos, d.size, offset, whence)
	if err != nil {
		return 0, err
	}
	d.pos = newPos
	return newPos, nil
}

func (d *readDescriptor) Tell() int64 { return d.pos }

func (d *readDescriptor) Close(ctx context.Context) error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	return nil
}

func (d *readDescriptor) CleanupScans(ctx context.Context) error { return nil }
func (d *readDescriptor) OID() types.OID                         { return d.oid }
func (d *readDescriptor) Mode() types.OpenMode                   { return types.ModeRead }

// -----------------------------------------------------------------------------
// 2. writeDescriptor: 新建对象的缓冲描述符，Close 时整体上传
// -----------------------------------------------------------------------------

type writeDescriptor struct {
	adapter *Adapter
	oid     types.OID
	mode    types.OpenMode
	buf     []byte
	pos     int64
	closed  bool
}

func (d *writeDescriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanRead() {
		return 0, fmt.Errorf("object %s not open for reading", d.oid)
	}

	remaining := int64(len(d.buf)) - d.pos
	if remaining <= 0 {
		return 0, nil
	}
	n := copy(p, d.buf[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *writeDescriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if !d.mode.CanWrite() {
		return 0, lostore.ErrReadOnly
	}

	// Seek 可以停在缓冲区末尾之外，空洞补零
	end := d.pos + int64(len(p))
	if end > int64(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	copy(d.buf[d.pos:end], p)
	d.pos = end
	return len(p), nil
}

func (d *writeDescriptor) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, errClosed
	}
	newPos, err := resolveSeek(d.pos, int64(len(d.buf)), offset, whence)
	if err != nil {
		return 0, err
	}
	d.pos = newPos
	return newPos, nil
}

func (d *writeDescriptor) Tell() int64 { return d.pos }

// Close 把攒下的字节一次性上传成 S3 对象
func (d *writeDescriptor) Close(ctx context.Context) error {
	if d.closed {
		return errClosed
	}
	d.closed = true

	_, err := d.adapter.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.adapter.bucket),
		Key:         aws.String(d.adapter.key(d.oid)),
		Body:        bytes.NewReader(d.buf),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put failed: %w", err)
	}
	return nil
}

func (d *writeDescriptor) CleanupScans(ctx context.Context) error { return nil }
func (d *writeDescriptor) OID() types.OID                         { return d.oid }
func (d *writeDescriptor) Mode() types.OpenMode                   { return d.mode }

// resolveSeek 统一的 whence 解析
func resolveSeek(pos, size, offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = pos
	case io.SeekEnd:
		base = size
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fmt.Errorf("seek to negative position %d", newPos)
	}
	return newPos, nil
}
