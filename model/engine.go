package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"deepchat/ollama"
)

// ChunkParseWarning is shown in place of a stream element that is not JSON.
const ChunkParseWarning = "Error: Unable to parse JSON chunk"

var (
	ErrGenerationRequestFailed = errors.New("generation request failed")
	ErrStreamTransport         = errors.New("stream transport failed")
)

type UpdateKind int

const (
	// UpdateState reports an exchange state transition.
	UpdateState UpdateKind = iota
	// UpdatePartial carries the sanitized running total after a chunk.
	UpdatePartial
	// UpdateWarning carries a transient message; the stream continues.
	UpdateWarning
)

type Update struct {
	Kind  UpdateKind
	Text  string
	State ExchangeState
}

// Result is the outcome of one exchange. Content is what becomes the
// assistant message, error text included. Err is nil when the stream
// completed, otherwise it wraps ErrGenerationRequestFailed or
// ErrStreamTransport.
type Result struct {
	ExchangeID string
	Content    string
	State      ExchangeState
	Err        error
}

type Engine struct {
	client      *ollama.Client
	keepPartial bool
	log         *zap.Logger
}

// NewEngine creates an engine generating through client. With keepPartial
// the text streamed before a failure stays in the message, ahead of the error.
func NewEngine(client *ollama.Client, keepPartial bool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:      client,
		keepPartial: keepPartial,
		log:         logger,
	}
}

// Stream generates a response to prompt, calling onUpdate for every state
// change, every chunk (with the running total) and every malformed element.
// Network failures never escape: they become the result's content.
func (e *Engine) Stream(ctx context.Context, model, prompt string, onUpdate func(Update)) Result {
	emit := func(u Update) {
		if onUpdate != nil {
			onUpdate(u)
		}
	}

	ex := NewExchange(func(s ExchangeState) {
		emit(Update{Kind: UpdateState, State: s})
	})
	log := e.log.With(zap.String("exchange", ex.ID), zap.String("model", model))

	if err := ex.Send(); err != nil {
		return e.fail(ex, log, "", err)
	}
	log.Debug("sending prompt", zap.Int("prompt_len", len(prompt)))

	stream, err := e.client.Generate(ctx, model, prompt)
	if err != nil {
		return e.fail(ex, log, "", err)
	}
	defer stream.Close()

	if err := ex.Accept(); err != nil {
		return e.fail(ex, log, "", err)
	}

	var raw strings.Builder
	chunks := 0
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ollama.ErrMalformedChunk) {
			log.Warn("skipping malformed chunk", zap.Error(err))
			emit(Update{Kind: UpdateWarning, Text: ChunkParseWarning})
			continue
		}
		if err != nil {
			return e.fail(ex, log, StripThinking(raw.String()), err)
		}

		chunks++
		raw.WriteString(chunk)
		emit(Update{Kind: UpdatePartial, Text: strings.TrimSpace(HideThinking(raw.String()))})
	}

	if err := ex.Finish(); err != nil {
		return e.fail(ex, log, StripThinking(raw.String()), err)
	}

	content := strings.TrimSpace(StripThinking(raw.String()))
	log.Debug("stream complete", zap.Int("chunks", chunks), zap.Int("content_len", len(content)))

	return Result{
		ExchangeID: ex.ID,
		Content:    content,
		State:      ex.State(),
	}
}

func (e *Engine) fail(ex *Exchange, log *zap.Logger, partial string, cause error) Result {
	kind := ErrStreamTransport
	var respErr *ollama.ResponseError
	if errors.As(cause, &respErr) {
		kind = ErrGenerationRequestFailed
	}

	content := "Error: " + cause.Error()
	if partial = strings.TrimSpace(partial); e.keepPartial && partial != "" {
		content = partial + "\n\n" + content
	}

	if !ex.State().Terminal() {
		if err := ex.Fail(); err != nil {
			log.Error("exchange transition failed", zap.Error(err))
		}
	}
	log.Warn("exchange failed", zap.Error(cause), zap.Bool("kept_partial", e.keepPartial && partial != ""))

	return Result{
		ExchangeID: ex.ID,
		Content:    content,
		State:      ex.State(),
		Err:        fmt.Errorf("%w: %w", kind, cause),
	}
}
