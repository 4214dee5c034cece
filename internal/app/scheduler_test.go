package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler(nil)
	assert.Error(t, s.Every(0, "zero", func() {}))
	assert.Error(t, s.Every(-time.Second, "negative", func() {}))
}

func TestScheduler_RejectsFractionalSeconds(t *testing.T) {
	s := NewScheduler(nil)
	err := s.Every(1500*time.Millisecond, "fractional", func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whole number of seconds")
	assert.NoError(t, s.Every(2*time.Second, "whole", func() {}))
}

func TestScheduler_RunsJob(t *testing.T) {
	s := NewScheduler(nil)

	var runs atomic.Int32
	require.NoError(t, s.Every(time.Second, "count", func() { runs.Add(1) }))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScheduler(zap.New(core))

	require.NoError(t, s.Every(time.Second, "panics", func() { panic("boom") }))
	s.Start()

	require.Eventually(t, func() bool {
		return logs.FilterLevelExact(zapcore.ErrorLevel).Len() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	s.Stop(context.Background())
}
