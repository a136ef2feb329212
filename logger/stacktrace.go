package logger

import (
	"fmt"
	"runtime"
	"strings"
)

// CaptureStacktrace 捕获当前调用栈
// skip: 跳过的栈帧数；depth: 最大深度（<=0 时为 32）
// 每帧两行：函数名，文件:行号
func CaptureStacktrace(skip int, depth int) string {
	if depth <= 0 {
		depth = 32
	}

	pcs := make([]uintptr, depth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\n\t%s:%d", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3, "fatal": 4}

// shouldCaptureStacktrace level 是否达到配置的堆栈级别
func shouldCaptureStacktrace(level string, cfg ManagerConfig) bool {
	if !cfg.EnableStacktrace {
		return false
	}
	return levelRank[level] >= levelRank[cfg.StacktraceLevel]
}
