package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bihari123/reelpick/config"
)

var (
	mu     sync.RWMutex
	base   = zap.NewNop()
	sugar  = base.Sugar()
	atomLv = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the process logger from config. Safe to call once at startup;
// before Init all log calls are no-ops.
func Init(cfg *config.LogConfig) error {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	atomLv.SetLevel(level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), atomLv),
	}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), atomLv))
	}

	mu.Lock()
	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	sugar = base.Sugar()
	mu.Unlock()
	return nil
}

func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func IsDebugEnabled() bool {
	return atomLv.Enabled(zapcore.DebugLevel)
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
