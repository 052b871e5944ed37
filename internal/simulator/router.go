package simulator

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/device", func(r chi.Router) {
			r.Put("/stop_water", s.handleStopWater)
			r.Put("/on", s.handleStandby(false))
			r.Put("/off", s.handleStandby(true))
			r.Put("/rain_delay", s.handleRainDelay)
			r.Put("/pause_zone_run", s.handlePauseZoneRun)
			r.Put("/resume_zone_run", s.handleResumeZoneRun)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/current_schedule", s.handleCurrentSchedule)
				r.Get("/current_conditions", s.handleCurrentConditions)
				r.Get("/forecast", s.handleForecast)
				r.Get("/event", s.handleEvents)
			})
		})

		r.Route("/zone", func(r chi.Router) {
			r.Put("/start", s.handleStartZone)
			r.Get("/{id}", s.handleGetZone)
		})
	})

	return r
}
