// Package log 提供模拟程序统一使用的日志接口，底层基于 logrus
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields 结构化日志字段
type Fields = logrus.Fields

var (
	logger  = newLogger(os.Stdout)
	logFile *os.File
	logMu   sync.Mutex
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLog 初始化日志文件，日志同时输出到标准输出和文件
func InitLog(filename string) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return nil
}

// CloseLog 关闭日志文件，之后日志只输出到标准输出
func CloseLog() {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile == nil {
		return
	}
	logger.SetOutput(os.Stdout)
	logFile.Close()
	logFile = nil
}

// SetLevel 按名称设置日志级别
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// SetOutput 重定向日志输出，测试时使用
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// Logger 返回底层 logrus 实例
func Logger() *logrus.Logger {
	return logger
}

// WriteLog 写入一条普通日志
func WriteLog(msg string) {
	logger.Info(msg)
}

// WithFields 返回带结构化字段的日志条目
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

// Debugf 写入调试日志
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Infof 写入普通日志
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// Warnf 写入警告日志
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Errorf 写入错误日志
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

// LogEnvironment 记录运行环境信息
func LogEnvironment() {
	logger.WithFields(Fields{
		"go":         runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
		"gomaxprocs": runtime.GOMAXPROCS(0),
	}).Info("runtime environment")
}

// LogSimParameters 记录模拟参数
func LogSimParameters(tickRate int, green, yellow, spawnInterval, spawnProb, recklessProb, accidentDuration float64, approaches []string) {
	logger.WithFields(Fields{
		"tickRate":         tickRate,
		"greenSeconds":     green,
		"yellowSeconds":    yellow,
		"spawnInterval":    spawnInterval,
		"spawnProbability": spawnProb,
		"reckless":         recklessProb,
		"accidentSeconds":  accidentDuration,
		"approaches":       approaches,
	}).Info("simulation parameters")
}
