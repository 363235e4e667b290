package model

import (
	"deepchat/storage"
)

type SessionsListMsg struct {
	Sessions []storage.Session
	Err      error
}

type LatestModelMsg struct {
	Model string
	Err   error
}

type StreamUpdateMsg struct {
	Update Update
}

type StreamDoneMsg struct {
	Prompt string
	Result Result
}

type HistoryChangedMsg struct{}

// MarkdownRenderedMsg carries the terminal rendering of Content, which must
// still match the message at MessageIndex when it arrives.
type MarkdownRenderedMsg struct {
	MessageIndex int
	Content      string
	Rendered     string
}
