// Package research holds the data model for a research session: messages,
// settings, iteration history, and the aggregated state projected from it.
package research

import (
	"fmt"
	"time"
)

// Role identifies who produced a Message, mirroring the role vocabulary of
// an OpenAI-style chat-completions payload.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
	RoleTool      Role = "tool"
	RoleFunction  Role = "function"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleDeveloper, RoleTool, RoleFunction:
		return true
	}
	return false
}

// ContentType classifies the payload carried by a Message.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
	ContentFile  ContentType = "file"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentImage, ContentAudio, ContentVideo, ContentFile:
		return true
	}
	return false
}

// Message is one turn in a MessageLog.
type Message struct {
	Role        Role        `json:"role"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	Timestamp   *time.Time  `json:"timestamp,omitempty"`
	Sender      *string     `json:"sender,omitempty"`
	MessageID   *string     `json:"message_id,omitempty"`
}

func (m Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("message: invalid role %q", m.Role)
	}
	ct := m.ContentType
	if ct == "" {
		ct = ContentText
	}
	if !ct.Valid() {
		return fmt.Errorf("message: invalid content_type %q", m.ContentType)
	}
	return nil
}

// CanonicalPair is the {role, content} shape LLM Capability consumes.
type CanonicalPair struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageLog is an ordered sequence of Message.
type MessageLog []Message

// Canonical converts the log to the canonical {role, content} pairs expected
// by LLM Capability, dropping everything a text completion call cannot use.
func (l MessageLog) Canonical() []CanonicalPair {
	out := make([]CanonicalPair, 0, len(l))
	for _, m := range l {
		out = append(out, CanonicalPair{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Append returns a new log with m appended; MessageLog values are treated as
// immutable snapshots the way AggregatedState treats iteration history.
func (l MessageLog) Append(m Message) MessageLog {
	next := make(MessageLog, len(l)+1)
	copy(next, l)
	next[len(l)] = m
	return next
}
