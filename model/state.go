package model

import (
	"fmt"
	"strings"

	"deepchat/storage"
)

// State is the active conversation. An empty Selected means "New Chat";
// Filename stays empty until the first exchange is saved.
type State struct {
	Selected string
	Filename string
	Messages []Message
}

// IsNew reports whether no session record backs the state yet.
func (s *State) IsNew() bool {
	return s.Filename == ""
}

// Reset starts a new chat.
func (s *State) Reset() {
	s.Selected = ""
	s.Filename = ""
	s.Messages = nil
}

// Select loads session id from the store into the state. The state gets its
// own copy of the messages. An empty id resets to a new chat.
func (s *State) Select(store *storage.Store, id string) error {
	if id == "" {
		s.Reset()
		return nil
	}

	session, err := store.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}

	s.Selected = session.ID
	s.Filename = session.Filename()
	s.Messages = FromStorage(session.Messages)
	return nil
}

// Snapshot returns a copy of the message list safe to render while the
// state keeps changing.
func (s *State) Snapshot() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// LastAssistant returns the content of the most recent assistant message.
func (s *State) LastAssistant() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

func (s *State) selectFilename(filename string) {
	s.Filename = filename
	s.Selected = strings.TrimSuffix(filename, storage.Extension)
}
