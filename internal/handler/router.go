package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/dialogue-sim/backend/internal/handler/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/handler/dialogue"
	"github.com/zhouzirui/dialogue-sim/backend/internal/handler/persona"
	middlewarePkg "github.com/zhouzirui/dialogue-sim/backend/internal/middleware"
	personaModel "github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	aiService "github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
	chatService "github.com/zhouzirui/dialogue-sim/backend/internal/service/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/profile"
	"github.com/zhouzirui/dialogue-sim/backend/pkg/utils"
)

type healthResponse struct {
	Status          string   `json:"status"`
	Generation      bool     `json:"generation"`
	Backend         string   `json:"backend"`
	MissingProfiles []string `json:"missingProfiles"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, profiles *profile.Store, chatSvc *chatService.Service, aiSvc *aiService.Service, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigin))

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc, aiSvc, personas)
	wsHandler := dialogue.NewWebSocketHandler(aiSvc, chatSvc, personas)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			missing := profiles.Missing(personas.List())
			if missing == nil {
				missing = []string{}
			}
			utils.RespondJSON(w, http.StatusOK, healthResponse{
				Status:          "ok",
				Generation:      aiSvc.Enabled(),
				Backend:         aiSvc.Backend(),
				MissingProfiles: missing,
			})
		})

		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
