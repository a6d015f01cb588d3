package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger 全局日志实例
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogger 初始化日志，pretty 为 true 时使用控制台友好格式（开发环境）
func InitLogger(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stdout
	if pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	Logger = zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
