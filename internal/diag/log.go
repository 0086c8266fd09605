package diag

import (
	"go.uber.org/zap"
)

// LogSink writes events to a zap logger, mapping severities onto levels.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink creates a console sink.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(e Event) {
	kv := []interface{}{
		"stage", e.Stage,
		"kind", string(e.Kind),
	}
	if e.RunID != "" {
		kv = append(kv, "run_id", e.RunID)
	}
	if e.Row > 0 {
		kv = append(kv, "row", e.Row)
	}
	if e.BaseID != "" {
		kv = append(kv, "base_id", e.BaseID)
	}
	if e.BaseName != "" {
		kv = append(kv, "base_name", e.BaseName)
	}
	if e.OtherID != "" {
		kv = append(kv, "other_id", e.OtherID)
	}
	if e.OtherName != "" {
		kv = append(kv, "other_name", e.OtherName)
	}
	if e.HasScore {
		kv = append(kv, "score", e.Score)
	}

	switch e.Severity {
	case SeverityWarn:
		s.log.Warnw(e.Message, kv...)
	case SeverityInfo:
		s.log.Infow(e.Message, kv...)
	default:
		s.log.Debugw(e.Message, kv...)
	}
}

// NewLogger builds the process logger. Debug level is enabled with verbose;
// json selects the production encoder.
func NewLogger(verbose, json bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
