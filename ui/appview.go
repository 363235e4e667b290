package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"deepchat/config"
	appmodel "deepchat/model"
	"deepchat/ollama"
	"deepchat/storage"
)

const (
	sidebarWidth = 28
	newChatLabel = "New Chat"
)

type AppView struct {
	ctx     context.Context
	chat    *appmodel.Chat
	client  *ollama.Client
	watcher *storage.Watcher
	keys    *config.KeyBindingsConfig
	log     *zap.Logger

	// Active conversation and the sidebar snapshot it is shown against
	state    appmodel.State
	sessions []storage.Session
	cursor   int // 0 is "New Chat", i is sessions[i-1]
	model    string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// In-flight exchange
	streaming     bool
	exchangeState appmodel.ExchangeState
	partial       string
	warning       string // shown under partial until the next chunk
	streamCh      <-chan tea.Msg

	status string

	width  int
	height int
	ready  bool
}

// NewAppView builds the chat screen. ctx bounds every exchange started from it.
func NewAppView(ctx context.Context, chat *appmodel.Chat, client *ollama.Client, watcher *storage.Watcher, keys *config.KeyBindingsConfig, logger *zap.Logger) AppView {
	if keys == nil {
		keys = config.DefaultKeybindings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Type your message and press Enter..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	return AppView{
		ctx:      ctx,
		chat:     chat,
		client:   client,
		watcher:  watcher,
		keys:     keys,
		log:      logger,
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
	}
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		appmodel.FetchSessionList(a.chat.Store()),
		appmodel.FetchLatestModel(a.client),
	}
	if cmd := appmodel.WaitForHistoryChange(a.watcher); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	modelName := a.model
	if modelName == "" {
		modelName = "no model"
	}
	title := AssistantStyle.Render("DeepSeek Chat") + TitleStyle.Render(" - "+modelName)

	chatPane := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		a.viewport.View(),
		a.input.View(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(), chatPane)

	kb := a.keys
	footer := FormatFooter(
		kb.DisplayActionKey("send"), "Send",
		kb.DisplayActionKey("new_chat"), "New chat",
		kb.DisplayActionKey("prev_session")+"/"+kb.DisplayActionKey("next_session"), "Sessions",
		kb.DisplayActionKey("yank_last_response"), "Copy",
		kb.DisplayActionKey("quit"), "Quit",
	)
	statusLine := StatusStyle.Render(footer)
	if a.status != "" {
		statusLine = WarningStyle.Render(a.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, statusLine)
}

func (a AppView) renderSidebar() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Chats"))
	b.WriteString("\n\n")

	width := sidebarWidth - 4
	entries := append([]string{newChatLabel}, sessionNames(a.sessions)...)
	for i, name := range entries {
		line := runewidth.Truncate(name, width, "…")
		active := (i == 0 && a.state.Selected == "") ||
			(i > 0 && a.sessions[i-1].ID == a.state.Selected)

		switch {
		case i == a.cursor:
			line = SelectedStyle.Render("> " + line)
		case active:
			line = ActiveStyle.Render("  " + line)
		default:
			line = DimStyle.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	height := a.height - 1
	if height < 0 {
		height = 0
	}
	return SidebarStyle.Width(sidebarWidth).Height(height).Render(b.String())
}

func sessionNames(sessions []storage.Session) []string {
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.ID
	}
	return names
}

func (a AppView) mainWidth() int {
	w := a.width - sidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

