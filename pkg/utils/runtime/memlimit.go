// Package runtime 提供与运行环境内存相关的工具
package runtime

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

// ApplyCgroupMemoryLimit 读取 cgroup 内存上限并设置 Go 运行时的内存上限（debug.SetMemoryLimit）。
//
// Argon2 一次分配整块内存，容器内需要让 GC 提前收缩。
//
// 规则：
// - 如果用户显式设置了 GOMEMLIMIT，则尊重用户，不做自动设置。
// - reserveRatio 建议 0.7~0.85（默认 0.8）。
func ApplyCgroupMemoryLimit(reserveRatio float64) (applied bool, limitBytes uint64, err error) {
	if os.Getenv("GOMEMLIMIT") != "" {
		return false, 0, nil
	}
	if reserveRatio <= 0 || reserveRatio >= 1 {
		reserveRatio = 0.8
	}

	limit, ok, readErr := readCgroupMemoryLimitBytes()
	if readErr != nil {
		return false, 0, readErr
	}
	if !ok || limit == 0 {
		return false, 0, nil
	}

	target := int64(float64(limit) * reserveRatio)
	if target <= 0 {
		return false, limit, nil
	}

	debug.SetMemoryLimit(target)
	return true, limit, nil
}

// AvailableMemoryBytes 返回进程可用的内存上限
//
// 优先取 cgroup 上限，未检测到时取物理内存总量；都无法获得时返回 0。
func AvailableMemoryBytes() uint64 {
	if limit, ok, err := readCgroupMemoryLimitBytes(); err == nil && ok {
		return limit
	}
	return memory.TotalMemory()
}

func readCgroupMemoryLimitBytes() (limit uint64, ok bool, err error) {
	// cgroup v2
	if b, e := os.ReadFile("/sys/fs/cgroup/memory.max"); e == nil {
		return parseLimit(b, "cgroup v2 memory.max")
	}
	// cgroup v1
	if b, e := os.ReadFile("/sys/fs/cgroup/memory/memory.limit_in_bytes"); e == nil {
		return parseLimit(b, "cgroup v1 memory.limit_in_bytes")
	}
	return 0, false, nil
}

func parseLimit(b []byte, source string) (uint64, bool, error) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "max" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s failed: %w", source, err)
	}
	// 某些环境会用超大值表示“无限制”
	if v > (1 << 60) {
		return 0, false, nil
	}
	return v, true, nil
}
