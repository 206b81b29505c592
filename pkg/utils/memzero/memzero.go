// Package memzero 提供敏感内存的清零工具
//
// 所有持有私钥、助记词、口令、派生密钥的缓冲区在生命周期结束时都应通过本包清零。
// 清零函数禁止内联，并在写入后调用 runtime.KeepAlive，防止编译器把“写后不再读”的
// 清零操作当作死存储消除。
package memzero

import "runtime"

// Wipe 将 b 的全部字节覆写为 0
//
//go:noinline
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	clear(b)
	runtime.KeepAlive(b)
}

// WipeAll 依次清零多个缓冲区
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Wipe(b)
	}
}

// Wipe32 清零定长 32 字节数组（标量、对称密钥常用）
//
//go:noinline
func Wipe32(a *[32]byte) {
	if a == nil {
		return
	}
	clear(a[:])
	runtime.KeepAlive(a)
}

// IsZero 判断缓冲区是否全零（常量时间，不提前返回）
func IsZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
