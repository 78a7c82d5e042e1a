// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atlas/internal/http/handlers"
	"atlas/internal/http/middleware"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/job"
	"atlas/internal/modules/ratelimit"
)

type RouterDeps struct {
	Itinerary    *itinerary.Service
	Jobs         *job.Store
	JobsLimiter  *ratelimit.Limiter
	GenLimiter   *ratelimit.Limiter
	MaxBodyBytes int64
	ProviderInfo HealthInfo
}

// HealthInfo is what /health reports about the provider wiring. It never
// includes key material, only whether a key is present.
type HealthInfo struct {
	Model     string
	KeyLoaded bool
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Observe(), middleware.SecurityHeaders())

	itineraryHandler := handlers.NewItineraryHandler(deps.Itinerary)
	jobHandler := handlers.NewJobHandler(deps.Jobs)

	r.POST("/jobs/itinerary",
		middleware.RateLimit(deps.JobsLimiter),
		middleware.BodyLimit(deps.MaxBodyBytes),
		itineraryHandler.CreateJob)
	r.GET("/jobs/:id", jobHandler.Get)
	r.POST("/generate_itinerary",
		middleware.RateLimit(deps.GenLimiter),
		middleware.BodyLimit(deps.MaxBodyBytes),
		itineraryHandler.Generate)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "ok",
			"model":               deps.ProviderInfo.Model,
			"provider_key_loaded": deps.ProviderInfo.KeyLoaded,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
