// pkg/log/log.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes structured JSON records. All of its methods may be called
// with a nil *Logger, in which case debug and info messages are discarded
// and warnings and errors go to slog's default logger.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time

	level *slog.LevelVar
}

// ParseLevel maps the level names accepted on the command line and in
// the config file to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// New returns a Logger that writes to a rotating log file in the given
// directory. If dir is empty, the user's config directory is used.
func New(level string, dir string) *Logger {
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v\n", err)
			dir = "."
		}
		dir = filepath.Join(dir, "scenegl")
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "scenegl.slog"),
		MaxSize:    32, // MB
		MaxBackups: 1,
	}
	if lvl == slog.LevelDebug {
		// Per-frame records add up quickly.
		w.MaxSize = 512
	}

	l := NewWithWriter(w, lvl)
	l.LogFile = w.Filename
	l.logStartup()
	return l
}

// NewWithWriter returns a Logger that writes JSON records to w; it is
// mostly useful for tools and tests that don't want a log file.
func NewWithWriter(w io.Writer, lvl slog.Level) *Logger {
	lv := &slog.LevelVar{}
	lv.Set(lvl)
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})),
		Start:  time.Now(),
		level:  lv,
	}
}

// logStartup records the platform and the build so that a log file on
// its own is enough to tell what produced it.
func (l *Logger) logStartup() {
	l.Info("Hello logging", slog.Time("start", l.Start), slog.String("file", l.LogFile))
	l.Info("Platform",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	var deps, settings []any
	for _, dep := range bi.Deps {
		deps = append(deps, slog.String(dep.Path, dep.Version))
		if dep.Replace != nil {
			deps = append(deps, slog.String("Replacement "+dep.Replace.Path, dep.Replace.Version))
		}
	}
	for _, setting := range bi.Settings {
		settings = append(settings, slog.String(setting.Key, setting.Value))
	}
	l.Info("Build",
		slog.String("Go version", bi.GoVersion),
		slog.String("Path", bi.Path),
		slog.Group("Dependencies", deps...),
		slog.Group("Settings", settings...))
}

// SetLevel changes the minimum level of records that are written.
func (l *Logger) SetLevel(lvl slog.Level) {
	if l != nil && l.level != nil {
		l.level.Set(lvl)
	}
}

// log is the common path for all of the level methods; it attaches the
// caller's stack to each record. Note that WarnContext, Log and the
// other slog methods that aren't wrapped don't get a callstack.
func (l *Logger) log(lvl slog.Level, msg string, args []any) {
	if l == nil {
		if lvl < slog.LevelWarn {
			return
		}
		slog.Log(context.Background(), lvl, msg, append([]any{slog.Any("callstack", Callstack(nil))}, args...)...)
		return
	}
	if !l.Logger.Enabled(context.Background(), lvl) {
		return
	}
	l.Logger.Log(context.Background(), lvl, msg, append([]any{slog.Any("callstack", Callstack(nil))}, args...)...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// Debugf and the other f variants format the message printf-style; they
// take no attributes.
func (l *Logger) Debugf(msg string, args ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Infof(msg string, args ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.log(slog.LevelError, fmt.Sprintf(msg, args...), nil)
}

// With returns a Logger that includes the given attributes in each
// record; the level is shared with l.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		Start:   l.Start,
		level:   l.level,
	}
}
