package cache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"lovault/pkg/lostore"
	"lovault/pkg/types"
)

// memDescriptor 是缓存命中时返回的只读描述符，整个对象都在内存里
type memDescriptor struct {
	oid    types.OID
	data   []byte
	pos    int64
	closed bool
}

var errClosed = errors.New("descriptor already closed")

func (d *memDescriptor) Read(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	if d.pos >= int64(len(d.data)) {
		return 0, nil
	}
	n := copy(p, d.data[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *memDescriptor) Write(ctx context.Context, p []byte) (int, error) {
	if d.closed {
		return 0, errClosed
	}
	return 0, lostore.ErrReadOnly
}

func (d *memDescriptor) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
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
		base = int64(len(d.data))
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

func (d *memDescriptor) Tell() int64 { return d.pos }

func (d *memDescriptor) Close(ctx context.Context) error {
	if d.closed {
		return errClosed
	}
	d.closed = true
	return nil
}

func (d *memDescriptor) CleanupScans(ctx context.Context) error { return nil }
func (d *memDescriptor) OID() types.OID                         { return d.oid }
func (d *memDescriptor) Mode() types.OpenMode                   { return types.ModeRead }
