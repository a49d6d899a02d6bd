package log

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Module tags used across the pipeline so log output can be filtered by stage.
const (
	ModuleDisasm  = "disasm"
	ModuleFlow    = "flow"
	ModuleStmt    = "stmt"
	ModuleCodegen = "codegen"
	ModuleHeader  = "header"
)

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
}

// InitLogger installs a terminal logger at the given level as the package default.
func InitLogger(level string) {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = LevelInfo
	}
	SetDefault(NewLogger(NewTerminalHandler(os.Stderr, lvl)))
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

func Trace(module, msg string, ctx ...interface{}) { Root().Trace(module, msg, ctx...) }
func Debug(module, msg string, ctx ...interface{}) { Root().Debug(module, msg, ctx...) }
func Info(module, msg string, ctx ...interface{})  { Root().Info(module, msg, ctx...) }
func Warn(module, msg string, ctx ...interface{})  { Root().Warn(module, msg, ctx...) }
func Error(module, msg string, ctx ...interface{}) { Root().Error(module, msg, ctx...) }
