package lofs

import "errors"

// 错误分类：每个原来用负数返回码区分的失败条件，这里都有一个
// 可以 errors.Is 判别的哨兵值。
var (
	// ErrOutOfRange 句柄数值不在 [0, MaxHandles) 内
	ErrOutOfRange = errors.New("large object handle out of range")

	// ErrInvalidHandle 句柄在范围内，但槽位是空的 (没打开过，或已关闭)
	ErrInvalidHandle = errors.New("invalid large object handle")

	// ErrTooManyHandles 句柄表满了 (容量 MaxHandles)
	ErrTooManyHandles = errors.New("too many open large object handles")

	// ErrStoreOpen 存储层拒绝了 open/create。
	// 和 ErrTooManyHandles 分开，"对象打不开" 和 "表满了" 必须可区分。
	ErrStoreOpen = errors.New("store could not open large object")

	// ErrShortCopy 导入/导出过程中出现短写，整个拷贝作废
	ErrShortCopy = errors.New("short write during large object copy")

	// ErrPermission 没有服务端导入/导出权限
	ErrPermission = errors.New("permission denied for server-side large object copy")
)
