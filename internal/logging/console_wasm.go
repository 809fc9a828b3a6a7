//go:build js && wasm

package logging

import (
	"strings"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsole returns a logger that writes each entry to the browser console,
// picking console.debug/info/warn/error by level.
func NewConsole(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := &consoleCore{
		LevelEnabler: lvl,
		enc:          zapcore.NewConsoleEncoder(encCfg),
	}
	return zap.New(core), nil
}

type consoleCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
}

func (c *consoleCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(clone)
	}
	return &consoleCore{LevelEnabler: c.LevelEnabler, enc: clone}
}

func (c *consoleCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *consoleCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	console := js.Global().Get("console")
	if console.Type() == js.TypeNull || console.Type() == js.TypeUndefined {
		return nil
	}
	var method string
	switch {
	case ent.Level <= zapcore.DebugLevel:
		method = "debug"
	case ent.Level == zapcore.InfoLevel:
		method = "info"
	case ent.Level == zapcore.WarnLevel:
		method = "warn"
	default:
		method = "error"
	}
	console.Call(method, strings.TrimSuffix(buf.String(), "\n"))
	return nil
}

func (c *consoleCore) Sync() error { return nil }
