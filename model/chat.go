package model

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"deepchat/storage"
)

// Chat runs exchanges against a State and commits them to the store.
type Chat struct {
	store  *storage.Store
	engine *Engine
	log    *zap.Logger
}

func NewChat(store *storage.Store, engine *Engine, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		store:  store,
		engine: engine,
		log:    logger,
	}
}

func (c *Chat) Store() *storage.Store {
	return c.store
}

func (c *Chat) Engine() *Engine {
	return c.engine
}

// Begin appends the user's prompt. It must precede the stream.
func (c *Chat) Begin(st *State, prompt string) {
	st.Messages = append(st.Messages, Message{Role: RoleUser, Content: prompt})
}

// Finish appends the single assistant message for res and persists the
// whole conversation. A new chat gets its record name from prompt here.
// Store errors are returned; the exchange then stays unsaved.
func (c *Chat) Finish(st *State, prompt string, res Result) error {
	st.Messages = append(st.Messages, Message{Role: RoleAssistant, Content: res.Content})

	filename := st.Filename
	if filename == "" {
		name, err := c.store.AllocateFilename(prompt)
		if err != nil {
			return fmt.Errorf("failed to name session: %w", err)
		}
		filename = name
	}

	if err := c.store.Save(filename, ToStorage(st.Messages)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	st.selectFilename(filename)

	c.log.Debug("exchange committed",
		zap.String("exchange", res.ExchangeID),
		zap.String("file", filename),
		zap.String("state", string(res.State)),
		zap.Int("messages", len(st.Messages)))
	return nil
}

// Submit runs a complete exchange: user message, streamed response,
// assistant message, save.
func (c *Chat) Submit(ctx context.Context, st *State, model, prompt string, onUpdate func(Update)) (Result, error) {
	c.Begin(st, prompt)
	res := c.engine.Stream(ctx, model, prompt, onUpdate)
	if err := c.Finish(st, prompt, res); err != nil {
		return res, err
	}
	return res, nil
}
