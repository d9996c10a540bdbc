package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("hello from test")

	if !strings.Contains(buf.String(), "hello from test") {
		t.Errorf("expected output to contain message, got: %s", buf.String())
	}
}

func TestFor_AddsComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := For(NewWithWriter(buf), "analytics")

	log.Info().Msg("tagged")

	if !strings.Contains(buf.String(), `"component":"analytics"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)
	got.Info().Msg("via context")

	if buf.Len() == 0 {
		t.Error("expected log output from context logger")
	}
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("expected a usable default logger")
	}
}
