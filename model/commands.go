package model

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"deepchat/ollama"
	"deepchat/storage"
)

// FetchSessionList reads the store snapshot the sidebar renders.
func FetchSessionList(store *storage.Store) tea.Cmd {
	return func() tea.Msg {
		sessions, err := store.List()
		return SessionsListMsg{Sessions: sessions, Err: err}
	}
}

// FetchLatestModel asks the server which model to use for the next exchange.
func FetchLatestModel(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		name, err := client.LatestModel(context.Background())
		return LatestModelMsg{Model: name, Err: err}
	}
}

// StartStream runs an exchange in its own goroutine. Every Update, then the
// final StreamDoneMsg, is delivered in order on the returned channel, which
// is closed afterwards. Cancelling ctx abandons delivery.
func StartStream(ctx context.Context, engine *Engine, model, prompt string) <-chan tea.Msg {
	ch := make(chan tea.Msg, 16)

	send := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(ch)
		res := engine.Stream(ctx, model, prompt, func(u Update) {
			send(StreamUpdateMsg{Update: u})
		})
		send(StreamDoneMsg{Prompt: prompt, Result: res})
	}()

	return ch
}

// WaitForStream delivers the next message of a running exchange. The update
// loop re-issues it after each StreamUpdateMsg, so every chunk produces one
// re-render.
func WaitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForHistoryChange blocks until the store's directory changes.
func WaitForHistoryChange(w *storage.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return HistoryChangedMsg{}
	}
}
