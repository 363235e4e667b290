package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	appmodel "deepchat/model"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		resized := msg.Width != a.width
		a.width = msg.Width
		a.height = msg.Height

		// Reserve space for title (1 line), separator (1 line), input (1 line) and status bar (1 line)
		viewportHeight := a.height - 4
		if viewportHeight < 1 {
			viewportHeight = 1
		}
		a.viewport.Width = a.mainWidth()
		a.viewport.Height = viewportHeight
		a.input.Width = a.mainWidth() - len(a.input.Prompt) - 1

		a.ready = true
		if resized {
			// Markdown was wrapped for the old width
			for i := range a.state.Messages {
				a.state.Messages[i].Rendered = ""
			}
		}
		a.updateViewportContent(true)
		return a, a.renderPending()

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.waiting() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.updateViewportContent(true)
		return a, cmd

	case streamUpdateMsg:
		return a.handleStreamUpdate(msg.Update)

	case streamDoneMsg:
		return a.handleStreamDone(msg)

	case sessionsListMsg:
		a.sessions = msg.Sessions
		if msg.Err != nil {
			a.log.Warn("some chat histories could not be read", zap.Error(msg.Err))
			a.status = "Warning: " + firstLine(msg.Err.Error())
		}
		a.syncCursor()
		return a, nil

	case latestModelMsg:
		a.model = msg.Model
		if msg.Err != nil {
			a.log.Warn("model list unavailable", zap.Error(msg.Err))
			a.status = "Error fetching models: " + msg.Err.Error()
		}
		return a, nil

	case historyChangedMsg:
		return a, tea.Batch(
			appmodel.FetchSessionList(a.chat.Store()),
			appmodel.WaitForHistoryChange(a.watcher),
		)

	case markdownRenderedMsg:
		if msg.MessageIndex < len(a.state.Messages) && a.state.Messages[msg.MessageIndex].Content == msg.Content {
			a.state.Messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(false)
		}
		return a, nil
	}

	return a, nil
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	kb := a.keys

	switch key {
	case "ctrl+c", kb.GetActionKey("quit"):
		return a, tea.Quit

	case kb.GetActionKey("page_down"):
		a.viewport.PageDown()
		return a, nil

	case kb.GetActionKey("page_up"):
		a.viewport.PageUp()
		return a, nil

	case kb.GetActionKey("half_page_down"), kb.GetActionKey("half_page_down_arrow"):
		a.viewport.HalfPageDown()
		return a, nil

	case kb.GetActionKey("half_page_up"), kb.GetActionKey("half_page_up_arrow"):
		a.viewport.HalfPageUp()
		return a, nil
	}

	// The conversation is locked until the exchange commits
	if a.streaming {
		return a, nil
	}

	switch key {
	case kb.GetActionKey("new_chat"):
		a.cursor = 0
		return a.selectCursor()

	case kb.GetActionKey("prev_session"):
		if a.cursor > 0 {
			a.cursor--
			return a.selectCursor()
		}
		return a, nil

	case kb.GetActionKey("next_session"):
		if a.cursor < len(a.sessions) {
			a.cursor++
			return a.selectCursor()
		}
		return a, nil

	case kb.GetActionKey("yank_last_response"):
		content, ok := a.state.LastAssistant()
		if !ok {
			a.status = "Nothing to copy yet"
			return a, nil
		}
		if err := clipboard.WriteAll(content); err != nil {
			a.log.Warn("clipboard write failed", zap.Error(err))
			a.status = "Copy failed: " + err.Error()
			return a, nil
		}
		a.status = "Copied last response to clipboard"
		return a, nil

	case kb.GetActionKey("send"):
		prompt := strings.TrimSpace(a.input.Value())
		if prompt == "" {
			return a, nil
		}
		a.input.Reset()
		return a.submit(prompt)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit shows the user message and starts the exchange in the background.
func (a AppView) submit(prompt string) (tea.Model, tea.Cmd) {
	a.chat.Begin(&a.state, prompt)
	a.streaming = true
	a.exchangeState = appmodel.StateIdle
	a.partial = ""
	a.warning = ""
	a.status = ""

	a.log.Debug("submitting prompt",
		zap.String("model", a.model),
		zap.String("session", a.state.Selected),
		zap.Int("length", len(prompt)))

	a.streamCh = appmodel.StartStream(a.ctx, a.chat.Engine(), a.model, prompt)
	a.updateViewportContent(true)

	return a, tea.Batch(
		appmodel.WaitForStream(a.streamCh),
		a.spinner.Tick,
		a.renderMarkdownAsync(len(a.state.Messages)-1, prompt),
	)
}

func (a AppView) handleStreamUpdate(u appmodel.Update) (tea.Model, tea.Cmd) {
	switch u.Kind {
	case appmodel.UpdateState:
		a.exchangeState = u.State
	case appmodel.UpdatePartial:
		a.partial = u.Text
		a.warning = ""
	case appmodel.UpdateWarning:
		a.warning = u.Text
	}
	a.updateViewportContent(true)
	return a, appmodel.WaitForStream(a.streamCh)
}

func (a AppView) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	a.streaming = false
	a.streamCh = nil
	a.partial = ""
	a.warning = ""
	a.exchangeState = msg.Result.State

	cmds := []tea.Cmd{
		appmodel.FetchSessionList(a.chat.Store()),
		appmodel.FetchLatestModel(a.client),
	}

	if err := a.chat.Finish(&a.state, msg.Prompt, msg.Result); err != nil {
		a.log.Error("failed to save chat", zap.Error(err))
		a.status = "Error saving chat: " + err.Error()
	}
	if msg.Result.Err != nil {
		a.log.Warn("exchange failed", zap.String("exchange", msg.Result.ExchangeID), zap.Error(msg.Result.Err))
	}

	if idx := len(a.state.Messages) - 1; idx >= 0 {
		cmds = append(cmds, a.renderMarkdownAsync(idx, a.state.Messages[idx].Content))
	}
	a.updateViewportContent(true)
	return a, tea.Batch(cmds...)
}

// selectCursor loads whatever the sidebar cursor points at.
func (a AppView) selectCursor() (tea.Model, tea.Cmd) {
	id := ""
	if a.cursor > 0 && a.cursor <= len(a.sessions) {
		id = a.sessions[a.cursor-1].ID
	}

	if err := a.state.Select(a.chat.Store(), id); err != nil {
		a.log.Warn("failed to open session", zap.String("session", id), zap.Error(err))
		a.status = "Error: " + err.Error()
		a.syncCursor()
		return a, nil
	}
	a.status = ""
	a.updateViewportContent(true)

	cmds := []tea.Cmd{a.renderPending()}
	if id == "" {
		cmds = append(cmds, appmodel.FetchLatestModel(a.client))
	}
	return a, tea.Batch(cmds...)
}

// syncCursor points the sidebar cursor at the selected session.
func (a *AppView) syncCursor() {
	if a.state.Selected == "" {
		a.cursor = 0
		return
	}
	for i, s := range a.sessions {
		if s.ID == a.state.Selected {
			a.cursor = i + 1
			return
		}
	}
	if a.cursor > len(a.sessions) {
		a.cursor = len(a.sessions)
	}
}

// waiting reports whether the spinner should run: sent, no content yet.
func (a AppView) waiting() bool {
	return a.streaming && a.exchangeState != appmodel.StateStreaming
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
