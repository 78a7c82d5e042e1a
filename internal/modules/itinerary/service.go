// README: Itinerary orchestration: context gathering, provider call, parsing.
package itinerary

import (
	"context"
	"errors"
	"time"

	"atlas/internal/ai"
	"atlas/internal/geo"
	"atlas/internal/logger"
	"atlas/internal/metrics"
	"atlas/internal/modules/job"
	"atlas/internal/planctx"
	"atlas/internal/security"
)

// Service drives itinerary generation. Async jobs go through the job store;
// the synchronous path shares the same pipeline. Provider concurrency is
// bounded by a semaphore so a burst of jobs cannot stampede the provider.
type Service struct {
	provider ai.Provider
	jobs     *job.Store
	geocoder geo.Geocoder // nil when no maps key is configured
	calendar *planctx.CalendarService
	climate  *planctx.ClimateService
	rates    planctx.RateSource
	timeout  time.Duration
	sem      chan struct{}
}

func NewService(
	provider ai.Provider,
	jobs *job.Store,
	geocoder geo.Geocoder,
	calendar *planctx.CalendarService,
	climate *planctx.ClimateService,
	rates planctx.RateSource,
	timeout time.Duration,
	workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		provider: provider,
		jobs:     jobs,
		geocoder: geocoder,
		calendar: calendar,
		climate:  climate,
		rates:    rates,
		timeout:  timeout,
		sem:      make(chan struct{}, workers),
	}
}

// Jobs exposes the backing store for the polling handler.
func (s *Service) Jobs() *job.Store { return s.jobs }

// Enqueue creates a queued job for the request and starts a detached worker.
// Every worker exit path writes a terminal job state.
func (s *Service) Enqueue(req *Request) string {
	j := s.jobs.Create(req)
	go s.run(j.ID, req)
	return j.ID
}

func (s *Service) run(id string, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("itinerary worker panic", map[string]interface{}{"job_id": id, "panic": r})
			s.fail(id, job.ReasonInternal, "internal error")
		}
	}()

	if err := s.jobs.SetRunning(id); err != nil {
		logger.Error("job could not start", map[string]interface{}{"job_id": id, "error": err.Error()})
		return
	}

	// The HTTP request that created the job is long gone; the worker runs
	// under its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	progress := func(msg string) { _ = s.jobs.Progress(id, msg) }

	it, err := s.generate(ctx, req, progress)
	if err != nil {
		failure := FailureFor(err)
		logger.Error("itinerary generation failed", map[string]interface{}{
			"job_id": id, "reason": string(failure.Reason), "error": err.Error(),
		})
		s.fail(id, failure.Reason, failure.Message)
		return
	}

	if err := s.jobs.SetResult(id, it); err != nil {
		logger.Error("job result dropped", map[string]interface{}{"job_id": id, "error": err.Error()})
		return
	}
	metrics.JobsTerminalTotal.WithLabelValues(string(job.StatusDone), "").Inc()
	logger.Info("itinerary job done", map[string]interface{}{
		"job_id": id, "destination": it.Destination, "days": len(it.DailyPlan),
	})
}

func (s *Service) fail(id string, reason job.FailReason, message string) {
	if err := s.jobs.SetFailure(id, reason, message); err != nil {
		logger.Error("job failure dropped", map[string]interface{}{"job_id": id, "error": err.Error()})
		return
	}
	metrics.JobsTerminalTotal.WithLabelValues(string(job.StatusFailed), string(reason)).Inc()
}

// Generate runs the pipeline synchronously under the caller's context plus
// the provider deadline.
func (s *Service) Generate(ctx context.Context, req *Request) (*Itinerary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.generate(ctx, req, func(string) {})
}

func (s *Service) generate(ctx context.Context, req *Request, progress func(string)) (*Itinerary, error) {
	progress("gathering destination context")
	point := s.locate(ctx, req.Destination)

	localCurrency := "USD"
	calendarNotes := ""
	climateNotes := ""
	var climateMonthly map[time.Month]planctx.MonthlyClimate
	if point != nil {
		localCurrency = localCurrencyFor(point.CountryCode)
		if s.calendar != nil {
			calendarNotes = s.calendar.BuildContext(ctx, req.Destination, point.CountryCode, req.StartDate, req.EndDate)
		}
		if s.climate != nil {
			if normals, err := s.climate.MonthlyNormals(ctx, point.Lat, point.Lng); err == nil {
				climateNotes = planctx.BuildClimateContext(point.Name, point.CountryCode, normals, req.StartDate, req.EndDate)
				climateMonthly = planctx.MonthlyMapForRange(normals, req.StartDate, req.EndDate)
			} else {
				logger.Warn("climate normals unavailable", map[string]interface{}{
					"destination": req.Destination, "error": err.Error(),
				})
			}
		}
	}

	// Upstream context data is untrusted too. A poisoned holiday name or
	// climate payload must not reach the prompt; drop the whole block.
	calendarNotes = screenContext("calendar", req.Destination, calendarNotes)
	climateNotes = screenContext("climate", req.Destination, climateNotes)

	prompt := BuildPrompt(req, calendarNotes, climateNotes)

	progress("waiting for a provider slot")
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ai.ErrTimeout
	}
	defer func() { <-s.sem }()

	progress("calling the itinerary provider")
	start := time.Now()
	raw, err := s.provider.Generate(ctx, prompt)
	metrics.ProviderCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	progress("parsing provider output")
	it, err := ParseResult(req, raw, localCurrency, climateMonthly)
	if err != nil {
		return nil, err
	}

	if resolver, ok := s.geocoder.(geo.PlaceResolver); ok {
		progress("resolving places")
		enrichPlaces(ctx, resolver, it)
	}

	if req.HomeCurrency != "" && req.MaxDailyBudget > 0 && s.rates != nil {
		progress("annotating budget")
		AnnotateBudget(ctx, it, req.HomeCurrency, req.MaxDailyBudget, s.rates)
	}

	it.Meta.GeneratedAtISO = time.Now().UTC().Format(time.RFC3339)
	progress("complete")
	return it, nil
}

func (s *Service) locate(ctx context.Context, destination string) *geo.Point {
	if s.geocoder == nil {
		return nil
	}
	point, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		logger.Warn("destination geocoding failed", map[string]interface{}{
			"destination": destination, "error": err.Error(),
		})
		return nil
	}
	return point
}

// enrichPlaces fills coordinates and maps links for activity places the model
// named but did not locate. Lookups are capped per itinerary and lookup
// failures leave the place as the model wrote it.
func enrichPlaces(ctx context.Context, resolver geo.PlaceResolver, it *Itinerary) {
	const maxLookups = 20
	lookups := 0
	for di := range it.DailyPlan {
		for i := range it.DailyPlan[di].Activities {
			if lookups >= maxLookups || ctx.Err() != nil {
				return
			}
			place := it.DailyPlan[di].Activities[i].Place
			if place == nil || place.Name == "" || (place.Coordinates != nil && place.MapsURL != "") {
				continue
			}
			lookups++
			resolved, err := resolver.FindPlace(ctx, it.Destination, place.Name)
			if err != nil {
				continue
			}
			if place.Coordinates == nil {
				place.Coordinates = &Coordinates{Lat: resolved.Lat, Lng: resolved.Lng}
			}
			if place.MapsURL == "" {
				place.MapsURL = resolved.MapsURL
			}
			if place.Address == "" {
				place.Address = resolved.Address
			}
		}
	}
}

func screenContext(name, destination, notes string) string {
	if notes == "" {
		return ""
	}
	if matches := security.Scan(notes); len(matches) > 0 || security.ScanEncoded(notes) {
		logger.Security("suspicious_context_notes", map[string]interface{}{
			"source": name, "destination": destination, "patterns": matches,
		})
		metrics.SecurityEventsTotal.WithLabelValues("context_" + name).Inc()
		return ""
	}
	return notes
}

// FailureFor maps a pipeline error onto a terminal job failure with a
// client-safe message.
func FailureFor(err error) job.Failure {
	switch {
	case errors.Is(err, ai.ErrTimeout):
		return job.Failure{Reason: job.ReasonProviderTimeout, Message: "the itinerary provider timed out"}
	case errors.Is(err, ai.ErrRejected):
		return job.Failure{Reason: job.ReasonProviderRejected, Message: "the itinerary provider declined the request"}
	case errors.Is(err, ai.ErrUnavailable):
		return job.Failure{Reason: job.ReasonProviderUnavailable, Message: "the itinerary provider is unavailable"}
	case errors.Is(err, ErrParse):
		return job.Failure{Reason: job.ReasonParse, Message: "provider output could not be parsed"}
	default:
		return job.Failure{Reason: job.ReasonInternal, Message: "internal error"}
	}
}
