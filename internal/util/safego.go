// safego.go — Panic-recovering goroutine launcher.
package util

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// SafeGo launches fn in a goroutine with deferred panic recovery. Panics are
// logged with their stack and swallowed so the server stays up.
func SafeGo(logger *zap.Logger, fn func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in background goroutine",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		fn()
	}()
}
