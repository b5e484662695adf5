package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/vantage-invest/advisor/internal/advisor"
	v1 "github.com/vantage-invest/advisor/internal/api/v1"
	"github.com/vantage-invest/advisor/internal/api/ws"
	"github.com/vantage-invest/advisor/internal/auth"
	"github.com/vantage-invest/advisor/internal/store/postgres"
)

func registerPublicRoutes(api huma.API, authSvc *auth.Service, advisorSvc *advisor.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
	v1.RegisterGuestAdvisorRoutes(api, advisorSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, advisorSvc *advisor.Service) {
	v1.RegisterAdvisorRoutes(api, advisorSvc)
	v1.RegisterSessionRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/chat/{sessionID}", hub.ServeChat)
}
