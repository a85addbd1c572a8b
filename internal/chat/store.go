package chat

import (
	"context"
	"encoding/json"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	chatKeyPrefix     = "chat:"
	messagesKeyPrefix = "chat_messages:"
	userChatsPrefix   = "user_chats:"
)

// Store keeps chats and their messages under namespaced keys: the chat
// record, a per-chat message list, and a per-user chat-id set.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

func (s *Store) chatKey(id string) string {
	return chatKeyPrefix + id
}

func (s *Store) messagesKey(chatID string) string {
	return messagesKeyPrefix + chatID
}

func (s *Store) userKey(userID string) string {
	return userChatsPrefix + userID
}

func (s *Store) CreateChat(ctx context.Context, userID, title string) (*Chat, error) {
	now := s.now()
	c := &Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.writeChat(ctx, c); err != nil {
		return nil, err
	}

	if err := s.client.SAdd(ctx, s.userKey(userID), c.ID).Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: index update failed", err)
	}

	return c, nil
}

// GetChat returns (nil, nil) for an unknown id or unreadable payload.
func (s *Store) GetChat(ctx context.Context, id string) (*Chat, error) {
	val, err := s.client.Get(ctx, s.chatKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: get failed", err)
	}

	var rec chatRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		logger.Warn("chat payload unreadable", map[string]any{
			"chat_id": id,
			"error":   err.Error(),
		})
		return nil, nil
	}

	c, err := hydrateChat(rec)
	if err != nil {
		logger.Warn("chat payload unreadable", map[string]any{
			"chat_id": id,
			"error":   err.Error(),
		})
		return nil, nil
	}
	return c, nil
}

func (s *Store) ListChats(ctx context.Context, userID string) ([]*Chat, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: list failed", err)
	}

	chats := make([]*Chat, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetChat(ctx, id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue // index entry outlived the record
		}
		chats = append(chats, c)
	}
	return chats, nil
}

func (s *Store) AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error) {
	m := &Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}

	data, err := json.Marshal(dehydrateMessage(m))
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: marshal message failed", err)
	}

	if err := s.client.RPush(ctx, s.messagesKey(chatID), data).Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: append message failed", err)
	}

	return m, nil
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]*Message, error) {
	vals, err := s.client.LRange(ctx, s.messagesKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStore, "chat: list messages failed", err)
	}

	msgs := make([]*Message, 0, len(vals))
	for _, val := range vals {
		var rec messageRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			logger.Warn("message payload unreadable", map[string]any{
				"chat_id": chatID,
				"error":   err.Error(),
			})
			continue
		}
		m, err := hydrateMessage(rec)
		if err != nil {
			logger.Warn("message payload unreadable", map[string]any{
				"chat_id": chatID,
				"error":   err.Error(),
			})
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// TouchChat bumps the chat's updated_at after new activity.
func (s *Store) TouchChat(ctx context.Context, c *Chat) error {
	c.UpdatedAt = s.now()
	return s.writeChat(ctx, c)
}

// DeleteChat removes the chat record, its messages, and its index entry.
// Deleting an already-deleted chat is not an error.
func (s *Store) DeleteChat(ctx context.Context, c *Chat) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.chatKey(c.ID))
	pipe.Del(ctx, s.messagesKey(c.ID))
	pipe.SRem(ctx, s.userKey(c.UserID), c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apierr.Wrap(apierr.KindStore, "chat: delete failed", err)
	}
	return nil
}

func (s *Store) writeChat(ctx context.Context, c *Chat) error {
	data, err := json.Marshal(dehydrateChat(c))
	if err != nil {
		return apierr.Wrap(apierr.KindStore, "chat: marshal failed", err)
	}
	if err := s.client.Set(ctx, s.chatKey(c.ID), data, 0).Err(); err != nil {
		return apierr.Wrap(apierr.KindStore, "chat: write failed", err)
	}
	return nil
}
