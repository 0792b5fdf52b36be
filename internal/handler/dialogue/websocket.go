package dialogue

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/zhouzirui/dialogue-sim/backend/internal/handler/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	aiService "github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	chatService "github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
	"github.com/zhouzirui/dialogue-sim/backend/pkg/utils"
)

const (
	defaultReadTimeout = 60 * time.Second
	readTimeoutMargin  = 30 * time.Second
	pingInterval       = 54 * time.Second
)

// readTimeoutFor gives idle connections at least as long as one generation call plus a margin.
func readTimeoutFor(generation time.Duration) time.Duration {
	if t := generation + readTimeoutMargin; t > defaultReadTimeout {
		return t
	}
	return defaultReadTimeout
}

// WebSocketHandler WebSocket对话处理器
type WebSocketHandler struct {
	aiSvc        *aiService.Service
	chatSvc      *chatService.Service
	personaStore persona.Store
	upgrader     websocket.Upgrader
	readTimeout  time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(aiSvc *aiService.Service, chatSvc *chatService.Service, personaStore persona.Store) *WebSocketHandler {
	return &WebSocketHandler{
		aiSvc:        aiSvc,
		chatSvc:      chatSvc,
		personaStore: personaStore,
		readTimeout:  readTimeoutFor(aiSvc.Timeout()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AskMessage 提问消息
type AskMessage struct {
	PersonaID string `json:"personaId"`
	Question  string `json:"question"`
}

// SelectMessage 切换角色消息
type SelectMessage struct {
	PersonaID string `json:"personaId"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	conv, err := h.chatSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	// 数据帧只在读循环中写出，ping 使用可并发调用的 WriteControl
	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":    "connected",
		"persona": conv.Active(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, utils.KindInvalidRequest, "session mismatch")
			conn.SetReadDeadline(time.Now().Add(h.readTimeout))
			continue
		}

		// 生成回答期间不读取，暂停读超时，处理完后重新计时
		conn.SetReadDeadline(time.Time{})
		h.handleMessage(ctx, conn, sessionID, conv, &msg)
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, conv *chat.Conversation, msg *inboundMessage) {
	switch msg.Type {
	case "ask":
		h.handleAsk(ctx, conn, sessionID, conv, msg.Data)
	case "select":
		h.handleSelect(conn, sessionID, conv, msg.Data)
	case "history":
		h.handleHistory(conn, sessionID, conv, msg.Data)
	default:
		h.sendError(conn, utils.KindInvalidRequest, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleAsk(ctx context.Context, conn *websocket.Conn, sessionID string, conv *chat.Conversation, raw json.RawMessage) {
	var ask AskMessage
	if err := json.Unmarshal(raw, &ask); err != nil {
		h.sendError(conn, utils.KindInvalidRequest, "invalid ask payload")
		return
	}

	characterID, ok := h.resolve(conn, conv, ask.PersonaID)
	if !ok {
		return
	}

	h.sendInfo(conn, sessionID, map[string]any{
		"type":     "user",
		"persona":  characterID,
		"question": ask.Question,
	})

	turn, err := h.aiSvc.Ask(ctx, conv, characterID, ask.Question)
	if err != nil {
		_, kind, message := chatHandler.ErrorStatus(err)
		h.sendError(conn, kind, message)
		return
	}
	conv.Select(characterID)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":          "answer",
		"persona":       characterID,
		"turn":          turn,
		"historyLength": conv.Len(characterID),
	})
}

func (h *WebSocketHandler) handleSelect(conn *websocket.Conn, sessionID string, conv *chat.Conversation, raw json.RawMessage) {
	var sel SelectMessage
	if err := json.Unmarshal(raw, &sel); err != nil || sel.PersonaID == "" {
		h.sendError(conn, utils.KindInvalidRequest, "invalid select payload")
		return
	}

	characterID, ok := h.resolve(conn, conv, sel.PersonaID)
	if !ok {
		return
	}
	conv.Select(characterID)

	log.Printf("[websocket] persona selected session=%s persona=%s", sessionID, characterID)
	h.sendInfo(conn, sessionID, map[string]any{
		"type":    "selected",
		"persona": characterID,
	})
}

func (h *WebSocketHandler) handleHistory(conn *websocket.Conn, sessionID string, conv *chat.Conversation, raw json.RawMessage) {
	var sel SelectMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sel); err != nil {
			h.sendError(conn, utils.KindInvalidRequest, "invalid history payload")
			return
		}
	}

	characterID := conv.Active()
	if sel.PersonaID != "" {
		character, ok := h.personaStore.FindByID(sel.PersonaID)
		if !ok {
			h.sendError(conn, utils.KindUnknownCharacter, "persona not found")
			return
		}
		characterID = character.ID
	}

	h.sendInfo(conn, sessionID, map[string]any{
		"type":    "history",
		"persona": characterID,
		"turns":   conv.History(characterID),
	})
}

// resolve maps personaID to a character, falling back to the active one. It
// never changes the selection.
func (h *WebSocketHandler) resolve(conn *websocket.Conn, conv *chat.Conversation, personaID string) (string, bool) {
	if personaID == "" {
		return conv.Active(), true
	}
	character, ok := h.personaStore.FindByID(personaID)
	if !ok {
		h.sendError(conn, utils.KindUnknownCharacter, "persona not found")
		return "", false
	}
	return character.ID, true
}

func (h *WebSocketHandler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, kind, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message, "kind": kind},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
