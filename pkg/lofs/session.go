// Package lofs 实现事务作用域的大对象句柄表。
//
// 一个 Session 对应一个事务：句柄只在创建它的 Session 里有效，
// 事务结束时 AtEOXact 把所有还开着的资源一次性收干净 —— 不管是
// 提交还是回滚，不管调用方有没有逐个 Close。
package lofs

import (
	"context"
	"fmt"
	"log/slog"

	"lovault/pkg/arena"
	"lovault/pkg/lostore"
	"lovault/pkg/types"
)

const (
	// MaxHandles 是句柄表容量。句柄本来就该短命、用完就关，
	// 所以表刻意做得小，不为高频复用做优化。
	MaxHandles = 256
)

// Config 控制 Session 的行为
type Config struct {
	// ServerSideCopy 授予服务端 Import/Export 权限 (单布尔权限门)
	ServerSideCopy bool

	Logger *slog.Logger
}

// entry 是句柄表的一个占用槽位
type entry struct {
	desc lostore.Descriptor

	// cancel 注销 arena 里对应的释放函数；显式 Close 时调用，
	// 避免 Destroy 再关一次
	cancel func()
}

// Session 是句柄表和作用域区域的持有者。
// 原型里这些是进程级全局量；这里改成显式对象，由事务持有，
// “同一时刻只有一个活跃事务” 的语义不变，只是耦合摆到了明面上。
// 非并发安全。
type Session struct {
	store lostore.Store
	log   *slog.Logger

	serverSideCopy bool

	// fscxt 是作用域区域：第一次 Open/Create 时惰性创建，
	// AtEOXact 整体销毁。nil 表示 Idle (本事务还没碰过大对象)。
	fscxt *arena.Arena

	// slots 就是句柄表本体：句柄是下标，非 nil 槽位是活句柄
	slots [MaxHandles]*entry
}

func NewSession(store lostore.Store, cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		store:          store,
		log:            log,
		serverSideCopy: cfg.ServerSideCopy,
	}
}

// -----------------------------------------------------------------------------
// 1. 句柄表内部操作 (allocate / lookup / release)
// -----------------------------------------------------------------------------

// newHandle 首次适配 (first-fit)：按下标顺序找第一个空槽。
// 确定性分配，最坏情况扫整张表；表小，无所谓。
func (s *Session) newHandle(e *entry) (types.Handle, error) {
	for i := range s.slots {
		if s.slots[i] == nil {
			s.slots[i] = e
			return types.Handle(i), nil
		}
	}
	return types.InvalidHandle, fmt.Errorf("%w (max %d)", ErrTooManyHandles, MaxHandles)
}

// lookup 校验并解析句柄。两种失败必须可区分：
// 数值越界 (ErrOutOfRange) vs 槽位为空 (ErrInvalidHandle)。
func (s *Session) lookup(h types.Handle) (*entry, error) {
	if h < 0 || h >= MaxHandles {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, h)
	}
	e := s.slots[h]
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return e, nil
}

// release 无条件清空槽位。底层资源必须已经由调用方释放。
func (s *Session) release(h types.Handle) {
	s.slots[h] = nil
}

// ensureArena 惰性创建作用域区域 (幂等)
func (s *Session) ensureArena() *arena.Arena {
	if s.fscxt == nil {
		s.fscxt = arena.New()
	}
	return s.fscxt
}

// -----------------------------------------------------------------------------
// 2. 流式操作 (open / create / read / write / seek / tell / close)
// -----------------------------------------------------------------------------

// Open 打开已存在的对象，返回新句柄。
// 存储层打不开 → ErrStoreOpen；句柄表满 → ErrTooManyHandles。
func (s *Session) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (types.Handle, error) {
	cxt := s.ensureArena()

	desc, err := s.store.Open(ctx, oid, mode)
	if err != nil {
		return types.InvalidHandle, fmt.Errorf("%w: %s: %v", ErrStoreOpen, oid, err)
	}

	// 描述符归区域所有：就算后面所有人都忘了它，Destroy 也会关掉它
	cancel := cxt.Defer(func(ctx context.Context) error {
		return desc.Close(ctx)
	})

	h, err := s.newHandle(&entry{desc: desc, cancel: cancel})
	if err != nil {
		// 表满：刚拿到的描述符必须当场还回去
		cancel()
		if cerr := desc.Close(ctx); cerr != nil {
			s.log.Warn("failed to close descriptor after table exhaustion", "oid", oid, "err", cerr)
		}
		return types.InvalidHandle, err
	}
	return h, nil
}

// Create 创建新对象并返回它的 OID。
// 注意：创建不留下活句柄 —— 存储层描述符立即关闭，想操作就再 Open。
func (s *Session) Create(ctx context.Context, mode types.OpenMode) (types.OID, error) {
	s.ensureArena()

	desc, err := s.store.Create(ctx, mode)
	if err != nil {
		return "", fmt.Errorf("%w: create: %v", ErrStoreOpen, err)
	}

	oid := desc.OID()
	if err := desc.Close(ctx); err != nil {
		return "", fmt.Errorf("failed to close freshly created object %s: %w", oid, err)
	}
	return oid, nil
}

// Read 最多读 maxLen 字节，返回实际读到的内容。
// 读到对象尾部返回空切片，不报错。
func (s *Session) Read(ctx context.Context, h types.Handle, maxLen int) ([]byte, error) {
	e, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	if maxLen < 0 {
		maxLen = 0
	}

	buf := make([]byte, maxLen)
	n, err := e.desc.Read(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("read handle %d: %w", h, err)
	}
	return buf[:n], nil
}

// Write 把 data 写到句柄当前位置，返回实际写入字节数。
// 短写不在这里判死刑 —— 依赖方 (比如拷贝循环) 自己决定怎么处理。
func (s *Session) Write(ctx context.Context, h types.Handle, data []byte) (int, error) {
	e, err := s.lookup(h)
	if err != nil {
		return 0, err
	}

	n, err := e.desc.Write(ctx, data)
	if err != nil {
		return n, fmt.Errorf("write handle %d: %w", h, err)
	}
	return n, nil
}

// Seek 移动句柄游标，whence 用 io.SeekStart/SeekCurrent/SeekEnd
func (s *Session) Seek(ctx context.Context, h types.Handle, offset int64, whence int) (int64, error) {
	e, err := s.lookup(h)
	if err != nil {
		return 0, err
	}

	pos, err := e.desc.Seek(ctx, offset, whence)
	if err != nil {
		return 0, fmt.Errorf("seek handle %d: %w", h, err)
	}
	return pos, nil
}

// Tell 返回句柄当前位置。
// 不进区域上下文也不碰后端 —— 原型就明确把它当纯内存操作。
func (s *Session) Tell(h types.Handle) (int64, error) {
	e, err := s.lookup(h)
	if err != nil {
		return 0, err
	}
	return e.desc.Tell(), nil
}

// Close 关闭句柄。二次 Close 被 lookup 拦下 (ErrInvalidHandle)。
func (s *Session) Close(ctx context.Context, h types.Handle) error {
	e, err := s.lookup(h)
	if err != nil {
		return err
	}

	// 槽位无条件释放：就算底层 Close 报错，句柄也不能复活
	e.cancel()
	s.release(h)

	if err := e.desc.Close(ctx); err != nil {
		return fmt.Errorf("close handle %d: %w", h, err)
	}
	return nil
}

// Unlink 删除持久对象。
//
// 已打开的句柄不会被联动失效：它们留在表里，后续操作由存储层报错。
// 这是原型里明确搁置 (而不是漏掉) 的行为，这里保持一致。
func (s *Session) Unlink(ctx context.Context, oid types.OID) error {
	return s.store.Delete(ctx, oid)
}

// -----------------------------------------------------------------------------
// 3. 事务生命周期钩子
// -----------------------------------------------------------------------------

// AtEOXact 在事务结束时调用一次，commit 指明是提交还是回滚。
//
// 这是保证“没有句柄逃出事务”的唯一出口，所以它自己绝不失败：
// 每个槽位的收尾都是尽力而为，失败只记日志，不阻止清表和销毁区域。
// Idle 状态 (本事务没开过句柄) 下调用是空操作。
func (s *Session) AtEOXact(ctx context.Context, commit bool) {
	if s.fscxt == nil {
		return // 本事务没有大对象操作
	}

	for i := range s.slots {
		e := s.slots[i]
		if e == nil {
			continue
		}
		// 扫描收尾只在提交时做：回滚的事务里，描述符可能指向
		// 已经无效的数据，除了遗忘不许再碰。
		if commit {
			if err := e.desc.CleanupScans(ctx); err != nil {
				s.log.Warn("cleanup scans failed at end of transaction",
					"handle", i, "oid", e.desc.OID(), "err", err)
			}
		}
		s.slots[i] = nil
	}

	// 区域整体销毁：所有还开着的描述符在这里关闭
	for _, err := range s.fscxt.Destroy(ctx) {
		s.log.Warn("resource release failed at end of transaction", "err", err)
	}
	s.fscxt = nil
}
