package logging

import (
	"context"
	"log/slog"
)

// teeHandler copies each record to every branch whose level admits it.
type teeHandler struct {
	branches []slog.Handler
}

// TeeHandler duplicates records to every non-nil handler that accepts their
// level. Zero handlers give a NoopHandler and one is returned as is.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	branches := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			branches = append(branches, h)
		}
	}
	switch len(branches) {
	case 0:
		return NoopHandler{}
	case 1:
		return branches[0]
	}
	return &teeHandler{branches: branches}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, b := range h.branches {
		if b.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(h.branches) - 1
	for i, b := range h.branches {
		if !b.Enabled(ctx, record.Level) {
			continue
		}
		// Handlers may retain the record; only the last one gets the original.
		r := record
		if i < last {
			r = record.Clone()
		}
		if err := b.Handle(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(b slog.Handler) slog.Handler { return b.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.each(func(b slog.Handler) slog.Handler { return b.WithGroup(name) })
}

func (h *teeHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.branches))
	for i, b := range h.branches {
		next[i] = fn(b)
	}
	return &teeHandler{branches: next}
}

// decisionHandler forwards only lines that carry a decision_type, giving an
// audit trail of why each record was verified, flagged or repaired.
type decisionHandler struct {
	inner  slog.Handler
	tagged bool
}

// DecisionsOnly wraps inner so it receives decision lines and nothing else.
func DecisionsOnly(inner slog.Handler) slog.Handler {
	if inner == nil {
		return NoopHandler{}
	}
	return &decisionHandler{inner: inner}
}

func (h *decisionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo && h.inner.Enabled(ctx, level)
}

func (h *decisionHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.tagged && !recordHasKey(record, FieldDecisionType) {
		return nil
	}
	return h.inner.Handle(ctx, record)
}

func (h *decisionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &decisionHandler{
		inner:  h.inner.WithAttrs(attrs),
		tagged: h.tagged || hasKey(attrs, FieldDecisionType),
	}
}

func (h *decisionHandler) WithGroup(name string) slog.Handler {
	return &decisionHandler{inner: h.inner.WithGroup(name), tagged: h.tagged}
}

func recordHasKey(record slog.Record, key string) bool {
	found := false
	record.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}
