// README: Entry point; loads config, wires services, starts HTTP server and background sweepers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlas/internal/ai"
	"atlas/internal/config"
	"atlas/internal/geo"
	httptransport "atlas/internal/http"
	"atlas/internal/infra"
	"atlas/internal/logger"
	"atlas/internal/metrics"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/job"
	"atlas/internal/modules/ratelimit"
	"atlas/internal/planctx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer provider.Close()

	var geocoder geo.Geocoder
	if cfg.Maps.APIKey != "" {
		geoSvc, err := geo.NewService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		geocoder = geoSvc
	} else {
		logger.Warn("MAPS_API_KEY not set, calendar and climate context disabled", nil)
	}

	calendar := planctx.NewCalendarService()
	climate := planctx.NewClimateService()
	currency := planctx.NewCurrencyService(time.Duration(cfg.Currency.TTLSeconds) * time.Second)

	jobStore := job.NewStore()
	itinerarySvc := itinerary.NewService(
		provider,
		jobStore,
		geocoder,
		calendar,
		climate,
		currency,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
		cfg.Jobs.Workers,
	)

	jobsWindow := time.Duration(cfg.RateLimit.JobsWindowSeconds) * time.Second
	genWindow := time.Duration(cfg.RateLimit.GenerateWindowSeconds) * time.Second

	// Each endpoint class gets its own limiter with its own window state.
	var jobsLimiter, genLimiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		client := infra.NewRedis(cfg.Redis.Addr)
		jobsLimiter = ratelimit.NewLimiter("jobs", ratelimit.NewRedisStore(client, "ratelimit:jobs"), cfg.RateLimit.JobsMax, jobsWindow)
		genLimiter = ratelimit.NewLimiter("generate", ratelimit.NewRedisStore(client, "ratelimit:generate"), cfg.RateLimit.GenerateMax, genWindow)
	} else {
		jobsStore := ratelimit.NewMemoryStore()
		genStore := ratelimit.NewMemoryStore()
		jobsLimiter = ratelimit.NewLimiter("jobs", jobsStore, cfg.RateLimit.JobsMax, jobsWindow)
		genLimiter = ratelimit.NewLimiter("generate", genStore, cfg.RateLimit.GenerateMax, genWindow)
		go jobsStore.RunSweeper(ctx, jobsWindow, jobsWindow)
		go genStore.RunSweeper(ctx, genWindow, genWindow)
	}

	go jobStore.RunPruner(ctx,
		time.Duration(cfg.Jobs.PruneIntervalSeconds)*time.Second,
		time.Duration(cfg.Jobs.TTLSeconds)*time.Second)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Itinerary:    itinerarySvc,
		Jobs:         jobStore,
		JobsLimiter:  jobsLimiter,
		GenLimiter:   genLimiter,
		MaxBodyBytes: cfg.Limits.MaxBodyBytes,
		ProviderInfo: httptransport.HealthInfo{Model: cfg.AI.Model, KeyLoaded: cfg.AI.GeminiKey != ""},
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("atlas api listening", map[string]interface{}{"addr": cfg.HTTP.Addr, "model": cfg.AI.Model})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
