package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes builds the chi router for the API surface.
//
//	POST /tags                   register a tag (optionally claiming a code)
//	GET  /tags/{tagID}           scan lookup → contact mask or claim signal
//	POST /tags/{tagID}/alerts    send an alert to the owner
//	GET  /tags/{tagID}/alerts    owner-facing paged alert history
//	POST /tags/{tagID}/disable   permanently disable a tag
//	GET  /healthz                liveness probe
//	GET  /openapi.yaml           embedded API specification
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Post("/tags", s.RegisterTag)
	r.Route("/tags/{tagID}", func(r chi.Router) {
		r.Get("/", s.LookupTag)
		r.Post("/alerts", s.SendAlert)
		r.Get("/alerts", s.ListAlerts)
		r.Post("/disable", s.DisableTag)
	})

	return r
}
