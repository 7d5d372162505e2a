// Package goroutine launches background work with panic containment.
package goroutine

import (
	"runtime/debug"

	"github.com/warden-sh/warden/internal/shared/logger"
)

// Go runs fn on its own goroutine under Recover, so a panicking background
// task is logged instead of taking the whole process down.
func Go(log logger.Interface, name string, fn func()) {
	go func() {
		defer Recover(log, name)
		fn()
	}()
}

// Recover is the deferred half of Go. It is exported so long-lived loops
// that manage their own goroutines can reuse the same containment.
func Recover(log logger.Interface, name string) {
	if r := recover(); r != nil {
		log.Errorw("background task panicked",
			"task", name,
			"panic", r,
			"stack", string(debug.Stack()),
		)
	}
}
