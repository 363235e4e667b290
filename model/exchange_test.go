package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeCompletes(t *testing.T) {
	var seen []ExchangeState
	ex := NewExchange(func(s ExchangeState) { seen = append(seen, s) })

	assert.NotEmpty(t, ex.ID)
	assert.Equal(t, StateIdle, ex.State())

	require.NoError(t, ex.Send())
	require.NoError(t, ex.Accept())
	require.NoError(t, ex.Finish())

	assert.Equal(t, StateCompleted, ex.State())
	assert.True(t, ex.State().Terminal())
	assert.Equal(t, []ExchangeState{StateSending, StateStreaming, StateCompleted}, seen)
}

func TestExchangeFailures(t *testing.T) {
	tests := []struct {
		name  string
		steps func(*Exchange) error
	}{
		{name: "while sending", steps: func(x *Exchange) error { return x.Send() }},
		{name: "while streaming", steps: func(x *Exchange) error {
			if err := x.Send(); err != nil {
				return err
			}
			return x.Accept()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExchange(nil)
			require.NoError(t, tt.steps(ex))
			require.NoError(t, ex.Fail())
			assert.Equal(t, StateFailed, ex.State())
		})
	}
}

func TestExchangeRejectsInvalidTransitions(t *testing.T) {
	ex := NewExchange(nil)
	assert.Error(t, ex.Finish(), "finish before send")
	assert.Error(t, ex.Fail(), "fail before send")

	require.NoError(t, ex.Send())
	assert.Error(t, ex.Finish(), "finish before accept")

	require.NoError(t, ex.Fail())
	assert.Error(t, ex.Send(), "terminal state")
	assert.Error(t, ex.Accept(), "terminal state")
	assert.Equal(t, StateFailed, ex.State())
}

func TestExchangeIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewExchange(nil).ID, NewExchange(nil).ID)
}
