package bigio_test

import (
	"testing"

	"github.com/hupe1980/bigio"
	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", bigio.StateIdle.String())
	assert.Equal(t, "launched", bigio.StateLaunched.String())
	assert.Equal(t, "reading", bigio.StateReading.String())
	assert.Equal(t, "completed", bigio.StateCompleted.String())
	assert.Equal(t, "failed", bigio.StateFailed.String())
	assert.Equal(t, "unknown(42)", bigio.State(42).String())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, bigio.StateIdle.Terminal())
	assert.False(t, bigio.StateLaunched.Terminal())
	assert.False(t, bigio.StateReading.Terminal())
	assert.True(t, bigio.StateCompleted.Terminal())
	assert.True(t, bigio.StateFailed.Terminal())
}
