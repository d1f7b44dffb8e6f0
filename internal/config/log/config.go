// Package log 提供日志系统的配置
package log

import (
	"path/filepath"

	configtypes "github.com/priceshield/v1/pkg/types"
	"github.com/priceshield/v1/pkg/utils"
	"go.uber.org/zap/zapcore"
)

// Options 日志配置选项
type Options struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error)
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 日志文件路径（空则仅控制台）

	// === 基础轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 调试配置 ===
	EnableCaller bool `json:"enable_caller"` // 是否启用调用者信息
}

// Config 日志配置实现
type Config struct {
	options *Options
}

// New 创建日志配置实现
func New(userConfig *configtypes.UserLogConfig) *Config {
	options := &Options{
		Level:        defaultLogLevel,
		ToConsole:    defaultToConsole,
		FilePath:     "",
		MaxSize:      defaultMaxSize,
		MaxBackups:   defaultMaxBackups,
		MaxAge:       defaultMaxAge,
		Compress:     defaultCompress,
		EnableCaller: defaultEnableCaller,
	}

	// 应用用户配置覆盖默认值
	if userConfig != nil {
		if userConfig.Level != nil && *userConfig.Level != "" {
			options.Level = *userConfig.Level
		}
		if userConfig.Dir != nil && *userConfig.Dir != "" {
			options.FilePath = utils.ResolveDataPath(filepath.Join(*userConfig.Dir, defaultLogFile))
		}
		if userConfig.MaxSizeMB != nil && *userConfig.MaxSizeMB > 0 {
			options.MaxSize = *userConfig.MaxSizeMB
		}
		if userConfig.MaxBackups != nil && *userConfig.MaxBackups > 0 {
			options.MaxBackups = *userConfig.MaxBackups
		}
	}

	return &Config{options: options}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetLevel 获取日志级别
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := defaultLevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}

// IsConsoleEnabled 是否启用控制台输出
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize 获取单个文件最大大小(MB)
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups 获取最大备份文件数
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge 获取最大保留天数
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled 是否启用压缩
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}

// IsCallerEnabled 是否启用调用者信息
func (c *Config) IsCallerEnabled() bool {
	return c.options.EnableCaller
}

// CreateFileEncoder 创建文件编码器 - JSON格式
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder 创建控制台编码器 - 可读格式
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}
