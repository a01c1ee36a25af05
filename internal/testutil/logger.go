// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger returns a logger that writes to the test log and fails the test when
// code under test logs at warn level or above. Tests that expect a warning
// should use zaptest or an observer core instead.
//
// Entries logged after the test has finished, typically by a server goroutine
// still shutting down, are dropped.
func Logger(t testing.TB) *zap.Logger {
	t.Helper()

	var finished atomic.Bool
	t.Cleanup(func() { finished.Store(true) })

	logger := zaptest.NewLogger(t,
		zaptest.Level(zapcore.DebugLevel),
		zaptest.WrapOptions(zap.Hooks(func(e zapcore.Entry) error {
			if e.Level >= zapcore.WarnLevel && !finished.Load() {
				t.Errorf("unexpected %s log during test: %s", e.Level.CapitalString(), e.Message)
			}
			return nil
		})),
	)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &liveCore{Core: c, finished: &finished}
	}))
}

// liveCore stops passing entries on once the owning test has finished.
type liveCore struct {
	zapcore.Core
	finished *atomic.Bool
}

func (c *liveCore) With(fields []zapcore.Field) zapcore.Core {
	return &liveCore{Core: c.Core.With(fields), finished: c.finished}
}

func (c *liveCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.finished.Load() {
		return ce
	}
	return c.Core.Check(e, ce)
}
