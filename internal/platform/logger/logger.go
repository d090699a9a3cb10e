package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/pillars-backend/internal/platform/ctxutil"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	policy        *policy
}

// Options control construction. Zero values fall back to the mode defaults.
type Options struct {
	Mode     string
	Level    string
	Redact   bool
	HashSalt string
}

// OptionsFromEnv reads LOG_LEVEL, LOG_REDACTION_ENABLED and LOG_HASH_SALT.
func OptionsFromEnv(mode string) Options {
	o := Options{
		Mode:     mode,
		Level:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Redact:   true,
		HashSalt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
	}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		o.Redact = false
	}
	return o
}

// New builds a zap-backed logger configured from the environment. Mode "test"
// is quiet (warn and above) so package tests do not flood output.
func New(mode string) (*Logger, error) {
	return NewWithOptions(OptionsFromEnv(mode))
}

func NewWithOptions(o Options) (*Logger, error) {
	cfg, lvl := baseConfig(o.Mode)
	if o.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(o.Level))
		if err != nil {
			return nil, fmt.Errorf("logger: bad level %q: %w", o.Level, err)
		}
		lvl = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{
		SugaredLogger: zl.Sugar(),
		policy:        &policy{enabled: o.Redact, salt: o.HashSalt},
	}, nil
}

func baseConfig(mode string) (zap.Config, zapcore.Level) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return zap.NewProductionConfig(), zapcore.InfoLevel
	case "test":
		return zap.NewDevelopmentConfig(), zapcore.WarnLevel
	default:
		return zap.NewDevelopmentConfig(), zapcore.DebugLevel
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), policy: defaultPolicy}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.p().apply(kv)...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.SugaredLogger.Infow(msg, l.p().apply(kv)...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.p().apply(kv)...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.p().apply(kv)...)
}

func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.p().apply(kv)...)
}

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.p().apply(kv)...), policy: l.policy}
}

// WithContext attaches the request's trace and request ids, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	td := ctxutil.GetTraceData(ctx)
	if td == nil {
		return l
	}
	kv := make([]interface{}, 0, 4)
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	if len(kv) == 0 {
		return l
	}
	return l.With(kv...)
}

func (l *Logger) p() *policy {
	if l.policy == nil {
		return defaultPolicy
	}
	return l.policy
}

type action int

const (
	keep action = iota
	redact
	hash
)

// Chat content is health-adjacent: message, reply and prompt are never
// written, only their lengths where callers log them.
var exactKeys = map[string]action{
	"message": redact,
	"reply":   redact,
	"prompt":  redact,
	"content": redact,
	"note":    redact,
}

var substringKeys = []struct {
	sub string
	act action
}{
	{"token", redact},
	{"authorization", redact},
	{"password", redact},
	{"secret", redact},
	{"api_key", redact},
	{"email", redact},
	{"user_id", hash},
}

var defaultPolicy = &policy{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}

type policy struct {
	enabled bool
	salt    string
}

func classify(key string) action {
	if key == "" {
		return keep
	}
	if a, ok := exactKeys[key]; ok {
		return a
	}
	for _, s := range substringKeys {
		if strings.Contains(key, s.sub) {
			return s.act
		}
	}
	return keep
}

func (p *policy) apply(kv []interface{}) []interface{} {
	if len(kv) == 0 || !p.enabled {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		name := stringify(kv[i])
		out = append(out, name, p.value(normKey(name), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (p *policy) value(key string, val interface{}) interface{} {
	switch classify(key) {
	case redact:
		return "[REDACTED]"
	case hash:
		return p.hash(val)
	}
	if m, ok := val.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = p.value(normKey(k), v)
		}
		return out
	}
	return val
}

func (p *policy) hash(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func normKey(k string) string { return strings.ToLower(strings.TrimSpace(k)) }

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
