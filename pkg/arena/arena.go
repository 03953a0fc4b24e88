// Package arena 提供事务作用域的资源区域。
//
// Go 的内存由 GC 管理，所以这里的“区域”管的不是字节而是资源生命周期：
// 区域内打开的每个资源注册一个释放函数，事务结束时 Destroy 一次性
// 全部释放，不需要逐个手工归还。这正是“整体销毁、绝不泄漏”的契约。
package arena

import "context"

// Arena 是一组注册过的释放函数。零散释放走 cancel，整体释放走 Destroy。
// 非并发安全：区域和它所属的事务一样，同一时刻只有一个执行流在用。
type Arena struct {
	releases  []func(ctx context.Context) error
	destroyed bool
}

func New() *Arena {
	return &Arena{}
}

// Defer 注册一个释放函数，返回对应的注销函数。
// 资源被显式释放时调用 cancel，避免 Destroy 时二次释放。
func (a *Arena) Defer(release func(ctx context.Context) error) (cancel func()) {
	idx := len(a.releases)
	a.releases = append(a.releases, release)
	return func() {
		a.releases[idx] = nil
	}
}

// Live 返回仍然注册着的释放函数个数
func (a *Arena) Live() int {
	n := 0
	for _, r := range a.releases {
		if r != nil {
			n++
		}
	}
	return n
}

// Destroy 逆序执行所有仍注册的释放函数，收集错误但绝不中途放弃：
// 一个资源释放失败不能连累其他资源。重复调用是空操作。
func (a *Arena) Destroy(ctx context.Context) []error {
	if a.destroyed {
		return nil
	}
	a.destroyed = true

	var errs []error
	for i := len(a.releases) - 1; i >= 0; i-- {
		release := a.releases[i]
		if release == nil {
			continue
		}
		a.releases[i] = nil
		if err := release(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.releases = nil
	return errs
}
