package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryLoggerSequence(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewMatchOpenEvent("m1", "Alice"))
	l.Log(NewTurnEvent("m1", 2, "guest", 1))
	l.Log(NewWinEvent("m1", 2, "host", "command post destroyed"))

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, 3, events[2].Seq)
	assert.Len(t, l.EventsOfType(EventNewTurn), 1)
	assert.Equal(t, EventWin, l.LastEvent().Type)
}

func TestTextLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewHQDamageEvent("m1", 3, "guest", 20, 17))

	assert.Contains(t, buf.String(), "T3  guest|")
	assert.Len(t, l.Events(), 1)
}

func TestStreamingLoggerRetention(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))
	for i := 0; i < StreamRetention+10; i++ {
		l.Log(NewTurnEvent("m1", i+1, "host", 1))
	}

	events := l.Events()
	require.Len(t, events, StreamRetention)
	assert.Equal(t, 11, events[0].Seq)
	assert.Equal(t, StreamRetention+10, logs.Len())
	assert.Equal(t, "m1", logs.All()[0].ContextMap()["match"])
}
