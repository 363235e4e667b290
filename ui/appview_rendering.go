package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"

	appmodel "deepchat/model"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.state.Messages) == 0 && !a.streaming {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	width := a.mainWidth() - 2
	var content strings.Builder

	for _, msg := range a.state.Messages {
		body := msg.Rendered
		if body == "" {
			body = wrap(msg.Content, width)
		}

		if msg.Role == appmodel.RoleUser {
			content.WriteString(formatUserMessage(UserStyle.Render("You"), body))
			continue
		}
		content.WriteString(fmt.Sprintf("%s\n%s\n\n", AssistantStyle.Render("Assistant"), body))
	}

	// The answer being streamed lives outside the state until it commits
	if a.streaming {
		streamContent := fmt.Sprintf("%s Waiting for response...", a.spinner.View())
		if a.partial != "" {
			streamContent = wrap(a.partial, width) + "▋"
		}
		if a.warning != "" {
			streamContent += "\n" + WarningStyle.Render(a.warning)
		}
		content.WriteString(fmt.Sprintf("%s\n%s\n\n", AssistantStyle.Render("Assistant"), streamContent))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func formatUserMessage(role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s\n", bar, role))
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// renderPending queues markdown rendering for every message without a cached rendering.
func (a AppView) renderPending() tea.Cmd {
	if !a.ready {
		return nil
	}
	var cmds []tea.Cmd
	for i := len(a.state.Messages) - 1; i >= 0; i-- {
		if a.state.Messages[i].Rendered == "" {
			cmds = append(cmds, a.renderMarkdownAsync(i, a.state.Messages[i].Content))
		}
	}
	return tea.Batch(cmds...)
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.mainWidth() - 4
	log := a.log
	return func() tea.Msg {
		start := time.Now()

		// Disable autolink so terminals handle URL detection
		ext := markdown.Extensions() &^ parser.Autolink
		p := parser.NewWithExtensions(ext)
		r := markdown.NewRenderer(width, 0)
		doc := p.Parse([]byte(mdLinkRegex.ReplaceAllString(content, "$2")))
		rendered := gomarkdown.Render(doc, r)

		processed := inlineCodeRegex.ReplaceAllString(string(rendered), "\x1b[31m$1\x1b[0m")
		processed = strings.TrimRight(processed, "\n")

		log.Debug("markdown rendered",
			zap.Int("message", messageIndex),
			zap.Int("length", len(content)),
			zap.Duration("elapsed", time.Since(start)))

		return markdownRenderedMsg{
			MessageIndex: messageIndex,
			Content:      content,
			Rendered:     processed,
		}
	}
}
