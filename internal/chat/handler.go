package chat

import (
	"context"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/auth"
	"chat-service/internal/httpx"
	"chat-service/internal/idempotency"
	"chat-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	chats *Store
	idem  *idempotency.Cache
}

func NewHandler(chats *Store, idem *idempotency.Cache) *Handler {
	return &Handler{
		chats: chats,
		idem:  idem,
	}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/chats", h.listChats)
	api.POST("/chats", h.createChat)
	api.GET("/chats/:id", h.getChat)
	api.DELETE("/chats/:id", h.deleteChat)
	api.POST("/chats/:id/messages", h.sendMessage)
}

type chatPayload struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type messagePayload struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toChatPayload(c *Chat) chatPayload {
	return chatPayload{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func toMessagePayload(m *Message) messagePayload {
	return messagePayload{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func identityOf(c *gin.Context) (*auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		httpx.Error(c, apierr.New(apierr.KindAuthentication, "no identity resolved"))
	}
	return id, ok
}

func (h *Handler) listChats(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		return
	}

	chats, err := h.chats.ListChats(c.Request.Context(), id.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	payload := make([]chatPayload, 0, len(chats))
	for _, chat := range chats {
		payload = append(payload, toChatPayload(chat))
	}
	httpx.OK(c, gin.H{"chats": payload})
}

type createChatRequest struct {
	Title          string `json:"title"`
	IdempotencyKey string `json:"idempotencyKey"`
}

func (h *Handler) createChat(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		return
	}

	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apierr.Wrap(apierr.KindValidation, "invalid request body", err))
		return
	}
	if req.Title == "" {
		httpx.Error(c, apierr.New(apierr.KindValidation, "title is required"))
		return
	}

	// Duplicate submission: replay the first response verbatim.
	if cached, hit := h.lookupIdempotent(c.Request.Context(), id.UserID, req.IdempotencyKey); hit {
		httpx.OKRaw(c, cached)
		return
	}

	chat, err := h.chats.CreateChat(c.Request.Context(), id.UserID, req.Title)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	h.respondIdempotent(c, id.UserID, req.IdempotencyKey, gin.H{"chat": toChatPayload(chat)})
}

func (h *Handler) getChat(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		return
	}

	chat, err := h.fetchOwnedChat(c, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	msgs, err := h.chats.ListMessages(c.Request.Context(), chat.ID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	payload := make([]messagePayload, 0, len(msgs))
	for _, m := range msgs {
		payload = append(payload, toMessagePayload(m))
	}
	httpx.OK(c, gin.H{
		"chat":     toChatPayload(chat),
		"messages": payload,
	})
}

type sendMessageRequest struct {
	Content        string `json:"content"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// The chat pipeline itself is an external collaborator; mutations are
// acknowledged with a canned assistant reply.
const (
	roleUser      = "user"
	roleAssistant = "assistant"

	cannedReply = "Thanks, your message was received. The assistant is not connected to a model yet."
)

func (h *Handler) sendMessage(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apierr.Wrap(apierr.KindValidation, "invalid request body", err))
		return
	}
	if req.Content == "" {
		httpx.Error(c, apierr.New(apierr.KindValidation, "content is required"))
		return
	}

	if cached, hit := h.lookupIdempotent(c.Request.Context(), id.UserID, req.IdempotencyKey); hit {
		httpx.OKRaw(c, cached)
		return
	}

	chat, err := h.fetchOwnedChat(c, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	msg, err := h.chats.AppendMessage(c.Request.Context(), chat.ID, roleUser, req.Content)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	reply, err := h.chats.AppendMessage(c.Request.Context(), chat.ID, roleAssistant, cannedReply)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.chats.TouchChat(c.Request.Context(), chat); err != nil {
		httpx.Error(c, err)
		return
	}

	h.respondIdempotent(c, id.UserID, req.IdempotencyKey, gin.H{
		"message": toMessagePayload(msg),
		"reply":   toMessagePayload(reply),
	})
}

func (h *Handler) deleteChat(c *gin.Context) {
	id, ok := identityOf(c)
	if !ok {
		return
	}

	chat, err := h.fetchOwnedChat(c, id)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.chats.DeleteChat(c.Request.Context(), chat); err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, gin.H{"deleted": chat.ID})
}

// fetchOwnedChat loads the chat from the path id and enforces ownership.
// A chat owned by someone else reads as an authentication failure, the
// same signal as no session at all.
func (h *Handler) fetchOwnedChat(c *gin.Context, id *auth.Identity) (*Chat, error) {
	chat, err := h.chats.GetChat(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apierr.New(apierr.KindNotFound, "chat not found")
	}
	if !id.Bypass && chat.UserID != id.UserID {
		return nil, apierr.New(apierr.KindAuthentication, "chat belongs to another user")
	}
	return chat, nil
}

func (h *Handler) lookupIdempotent(ctx context.Context, userID, key string) ([]byte, bool) {
	if key == "" {
		return nil, false // absent key disables caching for this request
	}
	return h.idem.Get(ctx, userID, key)
}

// respondIdempotent encodes the success envelope once, caches it under the
// idempotency key, and writes the same bytes to the client.
func (h *Handler) respondIdempotent(c *gin.Context, userID, key string, data any) {
	body, err := httpx.EncodeData(data)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if key != "" {
		h.idem.Put(c.Request.Context(), userID, key, body)
	}
	httpx.OKRaw(c, body)
}
