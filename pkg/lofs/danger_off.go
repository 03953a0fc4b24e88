//go:build !lovdangerous

package lofs

// allowDangerousLOFuncs 编译期开关：默认关闭，服务端 Import/Export
// 必须带着权限 (Config.ServerSideCopy) 才能用。
// 用 -tags lovdangerous 编译可以绕过权限门，仅限自己机器上的工具用法。
const allowDangerousLOFuncs = false
