// pkg/types/common.go
package types

// OID 是持久化对象的唯一标识符 (由 Store 在创建时分配)
// 这是一个“值对象”：跨事务稳定，与短命的 Handle 严格区分。
type OID string

func (o OID) String() string { return string(o) }
func (o OID) IsZero() bool   { return o == "" }

// Handle 是事务内打开的流的编号，本质是 Handle Table 的下标。
// 生命周期不超过创建它的那个事务。
type Handle int

// InvalidHandle 表示“没有拿到句柄”。
// 任何返回它的调用必定同时返回非 nil 的 error。
const InvalidHandle Handle = -1

func (h Handle) Int() int { return int(h) }

// OpenMode 是打开模式的位标志 (可以 ModeRead|ModeWrite 组合)
type OpenMode int

const (
	ModeRead OpenMode = 1 << iota
	ModeWrite
)

func (m OpenMode) CanRead() bool  { return m&ModeRead != 0 }
func (m OpenMode) CanWrite() bool { return m&ModeWrite != 0 }

// IsValid 校验模式至少包含读或写之一
func (m OpenMode) IsValid() bool { return m.CanRead() || m.CanWrite() }
