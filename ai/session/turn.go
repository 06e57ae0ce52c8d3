// Package session holds in-memory chat sessions and their turns.
// Nothing here is persisted; a session lives until it idles out of the store.
package session

import (
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/geminichat/ai/format"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one user message or one assistant reply. Turns are values and are
// never modified after creation.
type Turn struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Format    format.Format `json:"format"`
	Language  string        `json:"language,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewUserTurn wraps a user message. User text is always shown as plain text.
func NewUserTurn(content string) Turn {
	return Turn{
		ID:        shortuuid.New(),
		Role:      RoleUser,
		Content:   content,
		Format:    format.FormatText,
		CreatedAt: time.Now(),
	}
}

// NewAssistantTurn wraps a formatted reply. The language is dropped unless the
// decision is code.
func NewAssistantTurn(d format.Decision) Turn {
	t := Turn{
		ID:        shortuuid.New(),
		Role:      RoleAssistant,
		Content:   d.Content,
		Format:    d.Format,
		CreatedAt: time.Now(),
	}
	if d.Format == format.FormatCode {
		t.Language = d.Language
	}
	return t
}

// Decision returns the formatting view of the turn.
func (t Turn) Decision() format.Decision {
	return format.Decision{Content: t.Content, Format: t.Format, Language: t.Language}
}
