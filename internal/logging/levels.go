package logging

import "go.uber.org/zap/zapcore"

// TraceLevel is a custom level below Debug for ultra-verbose logging
// (wire-protocol dumps, function entry/exit). Almost always filtered in
// production.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses level, accepting the zapcore levels plus "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
