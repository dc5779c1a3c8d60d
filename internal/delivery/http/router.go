package http

import (
	"net/http"

	"github.com/frontandrew/yard/internal/delivery/http/middleware"
	"github.com/frontandrew/yard/internal/domain"
	"github.com/frontandrew/yard/internal/pkg/config"
	"github.com/frontandrew/yard/internal/pkg/jwt"
	"github.com/frontandrew/yard/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	admissionHandler *AdmissionHandler
	visitHandler     *VisitHandler
	weighingHandler  *WeighingHandler
	reportHandler    *ReportHandler
	tokenService     *jwt.TokenService
	config           *config.Config
	logger           logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	admissionHandler *AdmissionHandler,
	visitHandler *VisitHandler,
	weighingHandler *WeighingHandler,
	reportHandler *ReportHandler,
	tokenService *jwt.TokenService,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		admissionHandler: admissionHandler,
		visitHandler:     visitHandler,
		weighingHandler:  weighingHandler,
		reportHandler:    reportHandler,
		tokenService:     tokenService,
		config:           config,
		logger:           logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	// Health check endpoint (публичный)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// События идентификации (публичный - используется камерами
		// и терминалами КПП)
		r.Post("/admission/events", rt.admissionHandler.SubmitRecognition)

		// Protected routes (требуют операторский токен)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.tokenService))

			// Visit endpoints
			r.Route("/visits", func(r chi.Router) {
				r.Get("/", rt.visitHandler.ListVisits)
				r.Post("/departure", rt.visitHandler.RecordDeparture)
				r.Get("/{id}", rt.visitHandler.GetVisit)
				r.Get("/{id}/candidates", rt.admissionHandler.GetCandidates)

				// Решения по визитам принимают охранники и администраторы
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleGuard, domain.RoleAdmin))
					r.Post("/{id}/confirm", rt.visitHandler.Confirm)
					r.Post("/{id}/reject", rt.visitHandler.Reject)
				})
			})

			// Weighing endpoints
			r.Post("/weighings", rt.weighingHandler.RecordWeighing)
			r.Route("/requirements", func(r chi.Router) {
				r.Get("/{id}", rt.weighingHandler.GetRequirement)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleGuard, domain.RoleAdmin))
					r.Post("/{id}/skip", rt.weighingHandler.SkipRequirement)
				})
			})

			// Report endpoints
			r.Get("/reports/shift", rt.reportHandler.GetShiftReport)
		})
	})

	return r
}
