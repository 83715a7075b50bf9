package observe

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampLayout = "2006-01-02T15-04-05.000"

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a zap JSON logger taking structured fields as a plain map.
type Logger struct {
	appEnv  string
	appName string
	level   zap.AtomicLevel
	l       *zap.Logger
}

// NewZapLogger writes JSON entries to every writer given, or to stdout when none is.
// Everything down to debug is emitted until SetLevel says otherwise.
func NewZapLogger(appName string, writers ...io.Writer) *Logger {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	return NewFormattedZapLogger(appName, FormatJSON, writers[0], writers[1:]...)
}

// NewFormattedZapLogger encodes entries for out as format (FormatJSON or
// FormatConsole). Hooks always receive JSON, one entry per write.
func NewFormattedZapLogger(appName, format string, out io.Writer, hooks ...io.Writer) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(format), zapcore.AddSync(out), level),
	}
	for _, h := range hooks {
		cores = append(cores, zapcore.NewCore(newEncoder(FormatJSON), zapcore.AddSync(h), level))
	}

	return &Logger{
		appName: appName,
		level:   level,
		l:       zap.New(zapcore.NewTee(cores...)),
	}
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = timeEncoder(timestampLayout, time.UTC)

	if format == FormatConsole {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

// WithEnv returns a logger that stamps app_zone on every entry.
func (l *Logger) WithEnv(env string) *Logger {
	cp := *l
	cp.appEnv = env
	return &cp
}

func (l *Logger) SetLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.SetLevel(lvl)
	return nil
}

func (l *Logger) Stop() error {
	return l.l.Sync()
}

func (l *Logger) Error(err error, fields ...map[string]any) {
	l.emit(zapcore.ErrorLevel, err.Error(), fields,
		zap.String("error", err.Error()),
		zap.Stack("stack"),
	)
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.emit(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warning(msg string, fields ...map[string]any) {
	l.emit(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.emit(zapcore.DebugLevel, msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]any) {
	l.emit(zapcore.FatalLevel, msg, fields)
}

func (l *Logger) emit(lvl zapcore.Level, msg string, fields []map[string]any, extra ...zap.Field) {
	ce := l.l.Check(lvl, msg)
	if ce == nil {
		return
	}

	file, line, funcName := callerInfo()

	out := make([]zap.Field, 0, 5+len(extra))
	if len(fields) > 0 {
		out = append(out, mapToZapFields(fields[0])...)
	}
	out = append(out,
		zap.String("app_zone", l.appEnv),
		zap.String("app_name", l.appName),
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
	)
	out = append(out, extra...)

	ce.Write(out...)
}

func mapToZapFields(data map[string]any) []zap.Field {
	zapFields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		if err, ok := v.(error); ok {
			zapFields = append(zapFields, zap.NamedError(k, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

// callerInfo skips itself, emit and the public level method.
func callerInfo() (file string, line int, funcName string) {
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		return "not_defined", 0, "not_defined"
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}
	return file, line, funcName
}

func timeEncoder(layout string, location *time.Location) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		t = t.In(location)
		type appendTimeEncoder interface {
			AppendTimeLayout(time.Time, string)
		}
		if enc, ok := enc.(appendTimeEncoder); ok {
			enc.AppendTimeLayout(t, layout)
			return
		}
		enc.AppendString(t.Format(layout))
	}
}
