package ui

import (
	"deepchat/model"
)

type sessionsListMsg = model.SessionsListMsg
type latestModelMsg = model.LatestModelMsg
type streamUpdateMsg = model.StreamUpdateMsg
type streamDoneMsg = model.StreamDoneMsg
type historyChangedMsg = model.HistoryChangedMsg
type markdownRenderedMsg = model.MarkdownRenderedMsg
