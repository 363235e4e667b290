package model

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
)

// ExchangeState is the lifecycle position of one prompt/response exchange.
type ExchangeState string

const (
	StateIdle      ExchangeState = "idle"
	StateSending   ExchangeState = "sending"
	StateStreaming ExchangeState = "streaming"
	StateCompleted ExchangeState = "completed"
	StateFailed    ExchangeState = "failed"
)

type exchangeTrigger string

const (
	triggerSend   exchangeTrigger = "send"
	triggerAccept exchangeTrigger = "accept"
	triggerFinish exchangeTrigger = "finish"
	triggerFail   exchangeTrigger = "fail"
)

// Terminal reports whether no further transition is possible.
func (s ExchangeState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Exchange tracks one exchange through
// idle -> sending -> streaming -> completed, where sending and streaming may
// also fail.
type Exchange struct {
	ID string
	sm *stateless.StateMachine
}

// NewExchange returns an idle exchange. onChange, if set, observes every
// transition after it happens.
func NewExchange(onChange func(ExchangeState)) *Exchange {
	sm := stateless.NewStateMachine(StateIdle)

	sm.Configure(StateIdle).
		Permit(triggerSend, StateSending)

	sm.Configure(StateSending).
		Permit(triggerAccept, StateStreaming).
		Permit(triggerFail, StateFailed)

	sm.Configure(StateStreaming).
		Permit(triggerFinish, StateCompleted).
		Permit(triggerFail, StateFailed)

	sm.Configure(StateCompleted)
	sm.Configure(StateFailed)

	if onChange != nil {
		sm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
			onChange(t.Destination.(ExchangeState))
		})
	}

	return &Exchange{
		ID: uuid.NewString(),
		sm: sm,
	}
}

func (x *Exchange) State() ExchangeState {
	return x.sm.MustState().(ExchangeState)
}

func (x *Exchange) fire(trigger exchangeTrigger) error {
	if err := x.sm.Fire(trigger); err != nil {
		return fmt.Errorf("exchange %s: %w", x.ID, err)
	}
	return nil
}

// Send marks the request as issued.
func (x *Exchange) Send() error { return x.fire(triggerSend) }

// Accept marks the server as having accepted the request; chunks follow.
func (x *Exchange) Accept() error { return x.fire(triggerAccept) }

// Finish marks the stream as fully consumed.
func (x *Exchange) Finish() error { return x.fire(triggerFinish) }

// Fail aborts the exchange from sending or streaming.
func (x *Exchange) Fail() error { return x.fire(triggerFail) }
