package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/pkg/utils"
)

// Welcome is the copy shown on the landing view.
type Welcome struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Intro    string   `json:"intro"`
	Steps    []string `json:"steps"`
	Default  string   `json:"defaultPersonaId"`
}

// Handler 角色目录的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/categories", h.handleListCategories)
	r.Get("/welcome", h.handleWelcome)
}

// handleListPersonas 列出所有角色
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

// handleListCategories 按分类列出角色
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Categories())
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	welcome := DefaultWelcome()
	if c, ok := h.personas.FindByName(persona.DefaultCharacter); ok {
		welcome.Default = c.ID
	}
	utils.RespondJSON(w, http.StatusOK, welcome)
}

// DefaultWelcome returns the landing copy of the Library of Minds.
func DefaultWelcome() Welcome {
	return Welcome{
		Title:    "Historical Dialogue Simulator",
		Subtitle: "Speak with the greatest minds in history.",
		Intro: "Welcome to the Library of Minds. Here, through the magic of modern AI, you can engage in " +
			"conversation with recreations of some of history's most influential figures. Each personality " +
			"is crafted from their known writings, philosophies, and vocal styles.",
		Steps: []string{
			"Explore the categories in the Library Wing.",
			"Select a figure to speak with.",
			"Ask your question.",
		},
	}
}
