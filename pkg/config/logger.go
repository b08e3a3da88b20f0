package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LokiLogger is the application logger. Lines go to stdout through otelzap,
// which adds the trace and span ids, and are pushed to Grafana Loki when a
// push URL is configured.
type LokiLogger struct {
	Logger      *otelzap.Logger
	ServiceName string
	lokiURL     string
	httpClient  *http.Client
	encoder     zapcore.Encoder
}

type LokiPush struct {
	Streams []LokiStream `json:"streams"`
}

type LokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func NewLokiLogger(serviceName, lokiURL string, production bool) (*LokiLogger, error) {
	config := zap.NewDevelopmentConfig()

	if production {
		config = zap.NewProductionConfig()
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"

	zapLogger, err := config.Build(zap.Fields(zap.String("service", serviceName)))

	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return newLokiLogger(zapLogger, serviceName, lokiURL), nil
}

// NewNopLogger discards everything.
func NewNopLogger() *LokiLogger {
	return newLokiLogger(zap.NewNop(), "test", "")
}

func newLokiLogger(zapLogger *zap.Logger, serviceName, lokiURL string) *LokiLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.LineEnding = ""

	if lokiURL != "" {
		lokiURL = strings.TrimRight(lokiURL, "/") + "/loki/api/v1/push"
	}

	return &LokiLogger{
		Logger:      otelzap.New(zapLogger),
		ServiceName: serviceName,
		lokiURL:     lokiURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		encoder:     zapcore.NewJSONEncoder(encoderConfig),
	}
}

// Zap returns the plain logger for components that do not log per request.
func (l *LokiLogger) Zap() *zap.Logger {
	return l.Logger.Logger
}

func (l *LokiLogger) Sync() error {
	return l.Logger.Sync()
}

func (l *LokiLogger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields...)
}

func (l *LokiLogger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields...)
}

func (l *LokiLogger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (l *LokiLogger) log(ctx context.Context, level zapcore.Level, msg string, fields ...zap.Field) {
	switch level {
	case zapcore.ErrorLevel:
		l.Logger.Ctx(ctx).Error(msg, fields...)
	case zapcore.WarnLevel:
		l.Logger.Ctx(ctx).Warn(msg, fields...)
	default:
		l.Logger.Ctx(ctx).Info(msg, fields...)
	}

	if l.lokiURL == "" {
		return
	}

	entry, err := l.buildPush(ctx, level, msg, fields, time.Now())

	if err != nil {
		l.Logger.Error("failed to encode loki entry", zap.Error(err))
		return
	}

	go l.push(entry)
}

func (l *LokiLogger) buildPush(ctx context.Context, level zapcore.Level, msg string, fields []zap.Field, at time.Time) (LokiPush, error) {
	if span := trace.SpanFromContext(ctx).SpanContext(); span.IsValid() {
		fields = append(fields,
			zap.String("trace_id", span.TraceID().String()),
			zap.String("span_id", span.SpanID().String()),
		)
	}

	fields = append(fields, zap.String("service", l.ServiceName))

	line, err := l.encoder.EncodeEntry(zapcore.Entry{Level: level, Time: at, Message: msg}, fields)

	if err != nil {
		return LokiPush{}, err
	}

	defer line.Free()

	return LokiPush{
		Streams: []LokiStream{
			{
				Stream: map[string]string{
					"service": l.ServiceName,
					"level":   level.String(),
				},
				Values: [][]string{
					{fmt.Sprintf("%d", at.UnixNano()), line.String()},
				},
			},
		},
	}, nil
}

func (l *LokiLogger) push(entry LokiPush) error {
	body, err := json.Marshal(entry)

	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, l.lokiURL, bytes.NewReader(body))

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("loki push failed with status %d", resp.StatusCode)
	}

	return nil
}
