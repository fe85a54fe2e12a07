package domain

import (
	"bytes"
	"fmt"
	"runtime"
	"time"
)

// ErrorContext is a best-effort sample of the process environment taken at
// the fault boundary. Fields that cannot be sampled stay at their zero
// value; capture itself never fails.
type ErrorContext struct {
	CapturedAt     time.Time `json:"captured_at"`
	ThreadName     string    `json:"thread_name,omitempty"`
	GoroutineCount int       `json:"goroutine_count,omitempty"`
	MemoryUsage    *float64  `json:"memory_usage,omitempty"`
	GoVersion      string    `json:"go_version,omitempty"`
	NumCPU         int       `json:"num_cpu,omitempty"`
}

// CaptureContext samples the current environment. Each field is sampled
// independently so a failure in one leaves the others intact.
func CaptureContext() *ErrorContext {
	ctx := &ErrorContext{CapturedAt: time.Now()}

	sample(func() { ctx.ThreadName = currentGoroutineLabel() })
	sample(func() { ctx.GoroutineCount = runtime.NumGoroutine() })
	sample(func() { ctx.GoVersion = runtime.Version() })
	sample(func() { ctx.NumCPU = runtime.NumCPU() })
	sample(func() {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		if stats.HeapSys > 0 {
			usage := float64(stats.HeapAlloc) / float64(stats.HeapSys)
			ctx.MemoryUsage = &usage
		}
	})

	return ctx
}

func sample(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

// MemoryUsageFraction returns the heap usage as a fraction in [0.0, 1.0]
// and whether it was captured.
func (c *ErrorContext) MemoryUsageFraction() (float64, bool) {
	if c == nil || c.MemoryUsage == nil {
		return 0, false
	}
	return *c.MemoryUsage, true
}

// Summary renders a one-line description of the captured environment
func (c *ErrorContext) Summary() string {
	if c == nil {
		return "context unavailable"
	}
	memory := "n/a"
	if usage, ok := c.MemoryUsageFraction(); ok {
		memory = fmt.Sprintf("%.1f%%", usage*100)
	}
	thread := c.ThreadName
	if thread == "" {
		thread = "unknown"
	}
	return fmt.Sprintf("thread=%s goroutines=%d memory=%s go=%s cpus=%d",
		thread, c.GoroutineCount, memory, c.GoVersion, c.NumCPU)
}

// currentGoroutineLabel derives a thread-name analogue from the first line
// of the current goroutine's stack, e.g. "goroutine-42".
func currentGoroutineLabel() string {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) >= 2 && string(fields[0]) == "goroutine" {
		return "goroutine-" + string(fields[1])
	}
	return "goroutine-unknown"
}
