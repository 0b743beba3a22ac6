package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := TeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := TeeHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any handler accepts debug")
	}
	logger := slog.New(h)
	logger.Debug("debug only")

	if infoBuf.Len() != 0 {
		t.Fatal("info handler should not receive debug records")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler should receive debug records")
	}
}

func TestTeeHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("run", "r1")}).WithGroup("record"))
	logger.Info("checked", slog.Int64("id", 7))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"run":"r1"`)) {
			t.Fatalf("handler %d missing attr: %s", i, buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"record":{"id":7}`)) {
			t.Fatalf("handler %d missing group: %s", i, buf.String())
		}
	}
}

func TestDecisionsOnlyKeepsDecisionLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(DecisionsOnly(slog.NewJSONHandler(&buf, nil)))

	logger.Info("batch finished", slog.Int("processed", 3))
	Decision(logger, "verification decision", "verification", "flagged", "density impossible", RecordID(9))
	logger.Debug("debug decision", slog.String(FieldDecisionType, "verification"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one decision line, got %q", buf.String())
	}
	for _, want := range []string{`"decision_result":"flagged"`, `"record_id":9`} {
		if !bytes.Contains(lines[0], []byte(want)) {
			t.Fatalf("decision line missing %s: %s", want, lines[0])
		}
	}
}

func TestDecisionsOnlyHonoursTaggedLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(DecisionsOnly(slog.NewJSONHandler(&buf, nil))).
		With(slog.String(FieldDecisionType, "category_repair"))
	logger.Info("category repaired")
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"category repaired"`)) {
		t.Fatalf("expected tagged line to pass, got %q", buf.String())
	}
}
