package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ProductionMode  = "production"
	DevelopmentMode = "development"
)

// New builds a zap logger for the given mode. Production logs JSON with
// ISO8601 timestamps; development logs colored console output. The app's
// "release" mode maps to production.
func New(mode string) *zap.Logger {
	var config zap.Config
	if mode == ProductionMode || mode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return zapLogger
}

var global *zap.Logger = zap.NewNop()

func SetGlobal(l *zap.Logger) {
	global = l
}

func Global() *zap.Logger {
	return global
}
