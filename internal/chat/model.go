package chat

import (
	"fmt"
	"time"
)

type Chat struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID        string
	ChatID    string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

// Wire forms. Timestamps persist as ISO-8601 strings and are rehydrated
// on every read, same contract as session records.

type chatRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type messageRecord struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func dehydrateChat(c *Chat) chatRecord {
	return chatRecord{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func hydrateChat(r chatRecord) (*Chat, error) {
	createdAt, err := parseInstant("created_at", r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseInstant("updated_at", r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Chat{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func dehydrateMessage(m *Message) messageRecord {
	return messageRecord{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func hydrateMessage(r messageRecord) (*Message, error) {
	createdAt, err := parseInstant("created_at", r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        r.ID,
		ChatID:    r.ChatID,
		Role:      r.Role,
		Content:   r.Content,
		CreatedAt: createdAt,
	}, nil
}

func parseInstant(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("chat: bad %s timestamp: %w", field, err)
	}
	return t, nil
}
