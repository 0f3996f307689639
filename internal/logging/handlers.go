package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes computed at the moment a record is handled.
type ContextProvider func() []slog.Attr

// SceneAttrs reports the scene's selection and animation state on every record.
// published must be safe to call from any goroutine.
func SceneAttrs(published func() (selection string, animating bool)) ContextProvider {
	return func() []slog.Attr {
		selection, animating := published()
		if selection == "" {
			return []slog.Attr{slog.Bool("animating", animating)}
		}
		return []slog.Attr{slog.Bool("animating", animating), slog.String("selection", selection)}
	}
}

// tee hands each record to every output that accepts its level.
type tee []slog.Handler

// Tee joins outputs into one handler. Nil outputs are skipped. One output
// failing does not keep the record from the rest.
func Tee(outputs ...slog.Handler) slog.Handler {
	t := make(tee, 0, len(outputs))
	for _, h := range outputs {
		if h != nil {
			t = append(t, h)
		}
	}
	return t
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// decorated appends the provider's attributes to every record before passing it on.
type decorated struct {
	next     slog.Handler
	provider ContextProvider
}

// Decorate wraps next so each record carries provider's attributes.
// A nil provider returns next unchanged.
func Decorate(next slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return next
	}
	return decorated{next: next, provider: provider}
}

func (d decorated) Enabled(ctx context.Context, level slog.Level) bool {
	return d.next.Enabled(ctx, level)
}

func (d decorated) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(d.provider()...)
	return d.next.Handle(ctx, r)
}

func (d decorated) WithAttrs(attrs []slog.Attr) slog.Handler {
	return decorated{next: d.next.WithAttrs(attrs), provider: d.provider}
}

func (d decorated) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return decorated{next: d.next.WithGroup(name), provider: d.provider}
}
