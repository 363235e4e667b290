package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"deepchat/ollama"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chunkLines encodes chunks as /api/generate stream elements followed by the
// final done element.
func chunkLines(t *testing.T, chunks ...string) string {
	t.Helper()
	var b strings.Builder
	for _, c := range chunks {
		line, err := json.Marshal(map[string]any{"model": "deepseek-r1", "response": c, "done": false})
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteString(`{"model":"deepseek-r1","response":"","done":true}` + "\n")
	return b.String()
}

func newServer(t *testing.T, handler http.HandlerFunc) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := ollama.NewClient(srv.URL, "deepseek", srv.Client(), nil)
	require.NoError(t, err)
	return client
}

func streamOf(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range strings.SplitAfter(body, "\n") {
			_, _ = io.WriteString(w, line)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

type recorder struct {
	updates []Update
}

func (r *recorder) record(u Update) { r.updates = append(r.updates, u) }

func (r *recorder) of(kind UpdateKind) []Update {
	var out []Update
	for _, u := range r.updates {
		if u.Kind == kind {
			out = append(out, u)
		}
	}
	return out
}

func (r *recorder) texts(kind UpdateKind) []string {
	var out []string
	for _, u := range r.of(kind) {
		out = append(out, u.Text)
	}
	return out
}

func (r *recorder) states() []ExchangeState {
	var out []ExchangeState
	for _, u := range r.of(UpdateState) {
		out = append(out, u.State)
	}
	return out
}

func TestStreamAccumulatesSanitizedChunks(t *testing.T) {
	client := newServer(t, streamOf(chunkLines(t, "Hel", "lo! <think>reasoning</think> world")))
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "deepseek-r1", "Hi there", rec.record)

	require.NoError(t, res.Err)
	assert.Equal(t, "Hello! world", res.Content)
	assert.Equal(t, StateCompleted, res.State)
	assert.NotEmpty(t, res.ExchangeID)

	// One visible update per chunk, the final empty done element included.
	assert.Equal(t, []string{"Hel", "Hello! world", "Hello! world"}, rec.texts(UpdatePartial))
	assert.Equal(t, []ExchangeState{StateSending, StateStreaming, StateCompleted}, rec.states())
}

func TestStreamHidesReasoningWhileItStreams(t *testing.T) {
	client := newServer(t, streamOf(chunkLines(t, "<think>", "let me", " think", "</think>", "\n\nAnswer")))
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "deepseek-r1", "q", rec.record)

	require.NoError(t, res.Err)
	assert.Equal(t, "Answer", res.Content)
	for _, text := range rec.texts(UpdatePartial) {
		assert.NotContains(t, text, "let me")
		assert.NotContains(t, text, "think>")
	}
}

func TestStreamUnclosedMarkerKeepsAnswer(t *testing.T) {
	client := newServer(t, streamOf(chunkLines(t, "Wrap reasoning in a <think>", " tag; then the answer follows.")))
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "deepseek-r1", "q", rec.record)

	require.NoError(t, res.Err)
	assert.Equal(t, "Wrap reasoning in a  tag; then the answer follows.", res.Content)
	for _, text := range rec.texts(UpdatePartial) {
		assert.NotContains(t, text, "think>")
	}
}

func TestStreamMalformedChunkContinues(t *testing.T) {
	body := `{"response":"one "}` + "\n" + `garbage` + "\n" + `{"response":"two"}` + "\n"
	client := newServer(t, streamOf(body))
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "m", "p", rec.record)

	require.NoError(t, res.Err)
	assert.Equal(t, "one two", res.Content)
	assert.Equal(t, []string{ChunkParseWarning}, rec.texts(UpdateWarning))
	assert.Equal(t, []string{"one", "one two"}, rec.texts(UpdatePartial))
}

func TestStreamErrorStatusBecomesContent(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "server overloaded")
	})
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "m", "p", rec.record)

	assert.Equal(t, "Error: server overloaded", res.Content)
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, ErrGenerationRequestFailed)
	assert.Empty(t, rec.of(UpdatePartial))
	assert.Equal(t, []ExchangeState{StateSending, StateFailed}, rec.states())
}

func TestStreamInBandErrorIsGenerationFailure(t *testing.T) {
	body := `{"response":"partial"}` + "\n" + `{"error":"model runner crashed"}` + "\n"
	client := newServer(t, streamOf(body))
	engine := NewEngine(client, false, nil)

	res := engine.Stream(context.Background(), "m", "p", nil)

	assert.Equal(t, "Error: model runner crashed", res.Content)
	assert.ErrorIs(t, res.Err, ErrGenerationRequestFailed)
}

func droppingHandler(w http.ResponseWriter, r *http.Request) {
	// Promise more than is sent, then cut the connection.
	w.Header().Set("Content-Length", "4096")
	_, _ = io.WriteString(w, `{"response":"Hello"}`+"\n")
	w.(http.Flusher).Flush()
	panic(http.ErrAbortHandler)
}

func TestStreamTransportFailureKeepsPartial(t *testing.T) {
	client := newServer(t, droppingHandler)
	engine := NewEngine(client, true, nil)

	rec := &recorder{}
	res := engine.Stream(context.Background(), "m", "p", rec.record)

	assert.ErrorIs(t, res.Err, ErrStreamTransport)
	assert.Equal(t, StateFailed, res.State)
	assert.True(t, strings.HasPrefix(res.Content, "Hello\n\nError: "), res.Content)
	assert.Equal(t, []ExchangeState{StateSending, StateStreaming, StateFailed}, rec.states())
}

func TestStreamTransportFailureDiscardsPartial(t *testing.T) {
	client := newServer(t, droppingHandler)
	engine := NewEngine(client, false, nil)

	res := engine.Stream(context.Background(), "m", "p", nil)

	assert.ErrorIs(t, res.Err, ErrStreamTransport)
	assert.True(t, strings.HasPrefix(res.Content, "Error: "), res.Content)
	assert.NotContains(t, res.Content, "Hello")
}

func TestStreamUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := ollama.NewClient(url, "deepseek", nil, nil)
	require.NoError(t, err)
	engine := NewEngine(client, true, nil)

	res := engine.Stream(context.Background(), "m", "p", nil)

	assert.ErrorIs(t, res.Err, ErrStreamTransport)
	assert.Equal(t, StateFailed, res.State)
	assert.True(t, strings.HasPrefix(res.Content, "Error: "), res.Content)
}
