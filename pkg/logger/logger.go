package logger

import (
	"go.uber.org/zap"
)

// New 根据运行模式创建日志器
// debug 模式输出彩色控制台日志，release 模式输出 JSON
func New(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
