package model

import "deepchat/storage"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message in the conversation
type Message struct {
	Role     Role
	Content  string
	Rendered string // Cached terminal markdown, never persisted
}

// ToStorage copies messages into the persisted record shape.
func ToStorage(messages []Message) []storage.Message {
	out := make([]storage.Message, len(messages))
	for i, msg := range messages {
		out[i] = storage.Message{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}

// FromStorage copies a loaded record into conversation messages.
func FromStorage(messages []storage.Message) []Message {
	out := make([]Message, len(messages))
	for i, msg := range messages {
		out[i] = Message{Role: Role(msg.Role), Content: msg.Content}
	}
	return out
}
