package logging

import "github.com/rs/zerolog"

// DispatcherLogger writes command dispatch logs through zerolog. It satisfies
// dispatcher.Logger.
type DispatcherLogger struct {
	zl zerolog.Logger
}

func NewDispatcherLogger(zl zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{zl: zl}
}

func (l *DispatcherLogger) Debug(msg string, kv ...any) { emit(l.zl.Debug(), msg, kv) }
func (l *DispatcherLogger) Info(msg string, kv ...any)  { emit(l.zl.Info(), msg, kv) }
func (l *DispatcherLogger) Warn(msg string, kv ...any)  { emit(l.zl.Warn(), msg, kv) }
func (l *DispatcherLogger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

// emit adds alternating key/value pairs to ev. Non-string keys and a trailing
// key with no value are skipped.
func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.Str(key, v.Error())
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
