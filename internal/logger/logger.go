package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
	// With 返回附带固定字段的子日志
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

// loggerImpl 基于 zap 的日志实现
type loggerImpl struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

var (
	defaultLogger Logger
	defaultMu     sync.Mutex
)

// InitLogger 初始化日志系统
//
// 控制台输出写到 stderr，stdout 留给 MCP stdio 传输使用。
func InitLogger(config *Config) (Logger, error) {
	level := zap.NewAtomicLevelAt(toZapLevel(config.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var cores []zapcore.Core

	// 控制台输出
	if config.EnableConsole {
		out := config.Console
		if out == nil {
			out = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), level))
	}

	// 文件输出
	if config.EnableFile {
		logDir := config.LogDir
		if logDir == "" {
			logDir = "logs"
		}

		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}

		logFile := config.LogFile
		if logFile == "" {
			logFile = fmt.Sprintf("cloudarchitect-%s.log", time.Now().Format("2006-01-02"))
		}

		file, err := os.OpenFile(filepath.Join(logDir, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	core := zapcore.NewNopCore()
	if len(cores) > 0 {
		core = zapcore.NewTee(cores...)
	}

	l := &loggerImpl{
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
		level: level,
	}

	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return l, nil
}

// GetLogger 获取默认日志实例
func GetLogger() Logger {
	defaultMu.Lock()
	l := defaultLogger
	defaultMu.Unlock()
	if l != nil {
		return l
	}

	// 未初始化时使用只输出到控制台的默认配置
	l, _ = InitLogger(&Config{
		Level:         INFO,
		EnableConsole: true,
	})
	return l
}

// NewNop 返回丢弃所有输出的日志，主要用于测试
func NewNop() Logger {
	return &loggerImpl{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.ErrorLevel),
	}
}

// NewWriter 返回写入指定 writer 的日志，主要用于测试
func NewWriter(w io.Writer, level LogLevel) Logger {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), atomic)
	return &loggerImpl{sugar: zap.New(core).Sugar(), level: atomic}
}

// SetLevel 设置日志级别
func (l *loggerImpl) SetLevel(level LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

// GetLevel 获取日志级别
func (l *loggerImpl) GetLevel() LogLevel {
	return fromZapLevel(l.level.Level())
}

// With 返回附带字段的子日志，级别与父日志共享
func (l *loggerImpl) With(keysAndValues ...interface{}) Logger {
	return &loggerImpl{sugar: l.sugar.With(keysAndValues...), level: l.level}
}

// Sync 刷新缓冲
func (l *loggerImpl) Sync() error {
	return l.sugar.Sync()
}

// Debug 调试日志
func (l *loggerImpl) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 信息日志
func (l *loggerImpl) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 警告日志
func (l *loggerImpl) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 错误日志
func (l *loggerImpl) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// ParseLevel 解析日志级别字符串
func ParseLevel(levelStr string) LogLevel {
	levelStr = strings.ToUpper(strings.TrimSpace(levelStr))
	switch levelStr {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	return levelNames[l]
}

func toZapLevel(l LogLevel) zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(l zapcore.Level) LogLevel {
	switch {
	case l <= zapcore.DebugLevel:
		return DEBUG
	case l == zapcore.InfoLevel:
		return INFO
	case l == zapcore.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}
