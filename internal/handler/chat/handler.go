package chat

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	aiService "github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	chatService "github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
	"github.com/zhouzirui/dialogue-sim/backend/pkg/utils"
)

// Handler 会话与问答的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	aiSvc        *aiService.Service
	personaStore persona.Store
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, aiSvc *aiService.Service, personaStore persona.Store) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		aiSvc:        aiSvc,
		personaStore: personaStore,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Post("/select", h.handleSelect)
		r.Get("/history/{personaID}", h.handleHistory)
		r.Post("/ask", h.handleAsk)
		r.Post("/preview", h.handlePreview)
	})
}

type personaPayload struct {
	PersonaID string `json:"personaId"`
}

type questionPayload struct {
	PersonaID string `json:"personaId"`
	Question  string `json:"question"`
}

type historyResponse struct {
	PersonaID string      `json:"personaId"`
	Name      string      `json:"name"`
	Turns     []chat.Turn `json:"turns"`
}

type askResponse struct {
	PersonaID     string    `json:"personaId"`
	Turn          chat.Turn `json:"turn"`
	HistoryLength int       `json:"historyLength"`
}

// handleCreateSession 创建会话，未指定角色时使用默认角色
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload personaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, utils.KindInvalidRequest, "invalid request body")
		return
	}

	character, ok := h.resolveCharacter(payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, utils.KindUnknownCharacter, "persona not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), character.ID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, utils.KindInvalidRequest, err.Error())
		return
	}

	log.Printf("[chat] created session=%s persona=%s", session.ID, character.ID)
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 返回会话及当前角色
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleDeleteSession 丢弃会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelect 切换当前角色，不会清空任何历史
func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload personaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, utils.KindInvalidRequest, "invalid request body")
		return
	}
	if payload.PersonaID == "" {
		utils.RespondError(w, http.StatusBadRequest, utils.KindInvalidRequest, "personaId is required")
		return
	}

	character, ok := h.personaStore.FindByID(payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, utils.KindUnknownCharacter, "persona not found")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	conv, err := h.chatSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	conv.Select(character.ID)
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleHistory 返回某个角色的完整对话记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	character, ok := h.personaStore.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, utils.KindUnknownCharacter, "persona not found")
		return
	}

	turns, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"), character.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		PersonaID: character.ID,
		Name:      character.Name,
		Turns:     turns,
	})
}

// handleAsk 向角色提问并记录回答
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	conv, characterID, question, ok := h.prepareQuestion(w, r)
	if !ok {
		return
	}

	turn, err := h.aiSvc.Ask(r.Context(), conv, characterID, question)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	conv.Select(characterID)

	utils.RespondJSON(w, http.StatusOK, askResponse{
		PersonaID:     characterID,
		Turn:          turn,
		HistoryLength: conv.Len(characterID),
	})
}

// handlePreview 返回将要发送给模型的完整提示词，便于调试
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	conv, characterID, question, ok := h.prepareQuestion(w, r)
	if !ok {
		return
	}

	promptText, err := h.aiSvc.Preview(r.Context(), conv, characterID, question)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"personaId": characterID,
		"prompt":    promptText,
	})
}

// prepareQuestion decodes the body and resolves the target character. The
// conversation is not touched here; handleAsk selects the character only
// after the answer was recorded.
func (h *Handler) prepareQuestion(w http.ResponseWriter, r *http.Request) (*chat.Conversation, string, string, bool) {
	var payload questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, utils.KindInvalidRequest, "invalid request body")
		return nil, "", "", false
	}

	conv, err := h.chatSvc.Conversation(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondErr(w, err)
		return nil, "", "", false
	}

	characterID := conv.Active()
	if payload.PersonaID != "" {
		character, ok := h.personaStore.FindByID(payload.PersonaID)
		if !ok {
			utils.RespondError(w, http.StatusNotFound, utils.KindUnknownCharacter, "persona not found")
			return nil, "", "", false
		}
		characterID = character.ID
	}

	return conv, characterID, payload.Question, true
}

func (h *Handler) resolveCharacter(id string) (persona.Character, bool) {
	if id == "" {
		if c, ok := h.personaStore.FindByName(persona.DefaultCharacter); ok {
			return c, true
		}
		if all := h.personaStore.List(); len(all) > 0 {
			return all[0], true
		}
		return persona.Character{}, false
	}
	return h.personaStore.FindByID(id)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	status, kind, message := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[chat] request failed: %v", err)
	}
	utils.RespondError(w, status, kind, message)
}
