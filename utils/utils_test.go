package utils

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet()
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("b"))
	s.AddAll("c", "a")

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("c"))
	assert.False(t, s.Contains("z"))
	assert.Equal(t, []string{"b", "a", "c"}, s.Items())

	items := s.Items()
	items[0] = "mutated"
	assert.Equal(t, "b", s.Items()[0])
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"x", "y", "z"}, Dedupe([]string{"x", "y", "x", "z", "y"}))
	assert.NotNil(t, Dedupe(nil))
	assert.Empty(t, Dedupe(nil))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	logger.Debug("hidden %d", 1)
	logger.Info("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	logger.SetLevel(LevelWarn)
	logger.Info("quiet")
	logger.Warn("loud")
	logger.Error("louder")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "[ERROR]")

	buf.Reset()
	logger.SetLevel(ParseLevel("DEBUG"))
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestRetryWithBackoff(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	calls := 0
	err := RetryWithBackoff(3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	sentinel := errors.New("down")
	calls = 0
	err = RetryWithBackoff(2, time.Millisecond, func() error {
		calls++
		return sentinel
	}, logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)

	calls = 0
	_ = RetryWithBackoff(0, time.Millisecond, func() error {
		calls++
		return sentinel
	}, logger)
	assert.Equal(t, 1, calls)
}
