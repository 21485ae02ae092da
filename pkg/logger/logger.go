package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// Logger is a contract for the logger.
	Logger interface {
		Debugf(format string, args ...interface{})
		Infof(format string, args ...interface{})
		Warnf(format string, args ...interface{})
		Errorf(format string, args ...interface{})
		Fatalf(format string, args ...interface{})
		Debugw(msg string, kv ...interface{})
		Infow(msg string, kv ...interface{})
		Warnw(msg string, kv ...interface{})
		Errorw(msg string, kv ...interface{})
		With(args ...interface{}) Logger
		Flush() error
	}

	zapLogger struct {
		log *zap.SugaredLogger
	}
)

// New returns a JSON logger on stdout tagged with the service name.
// An unknown level falls back to info.
func New(appID, logLevel string) Logger {
	atom := zap.NewAtomicLevel()

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	log := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))

	atom.SetLevel(zap.InfoLevel)
	if logLevel != "" {
		if err := atom.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
			log.Error("invalid log level", zap.String("level", logLevel))
		}
	}

	return &zapLogger{log: log.Sugar().With("svc", appID)}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{log: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.log.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.log.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }
func (l *zapLogger) Fatalf(format string, args ...interface{}) { l.log.Fatalf(format, args...) }

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.log.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }

// With .
func (l *zapLogger) With(args ...interface{}) Logger {
	return &zapLogger{log: l.log.With(args...)}
}

// Flush .
func (l *zapLogger) Flush() error {
	return l.log.Sync()
}
