package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. mode is "production" for JSON output at
// info level; anything else gives coloured console output at debug level.
func New(mode string) (*zap.Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)
	switch strings.ToLower(mode) {
	case "production", "prod":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zapcore.InfoLevel
	case "development", "dev", "":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown log mode %q", mode)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

const defaultFlushDelay = 2 * time.Second

// Deduper collapses repeats of the same message into one line with a
// count, written once the message stops repeating for the flush delay.
type Deduper struct {
	log        *zap.Logger
	flushDelay time.Duration

	mu      sync.Mutex
	lastMsg string
	count   int
	timer   *time.Timer
}

func NewDeduper(log *zap.Logger) *Deduper {
	return &Deduper{log: log, flushDelay: defaultFlushDelay}
}

func (d *Deduper) flush() {
	if d.count == 0 {
		return
	}
	if d.count == 1 {
		d.log.Info(d.lastMsg)
	} else {
		d.log.Info(d.lastMsg, zap.Int("repeated", d.count))
	}
	d.count = 0
	d.lastMsg = ""
}

func (d *Deduper) Infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()

	if msg != d.lastMsg {
		d.flush()
		d.lastMsg = msg
	}
	d.count++
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.flushDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.flush()
	})
}

// Flush writes any pending message immediately.
func (d *Deduper) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.flush()
}
