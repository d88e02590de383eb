// Package service provides the forecasting service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/okian/quals/internal/adapters/repository"
	"github.com/okian/quals/internal/adapters/statsapi"
	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/internal/domain/montecarlo"
	"github.com/okian/quals/internal/domain/prediction"
	"github.com/okian/quals/internal/domain/ranking"
	"github.com/okian/quals/internal/domain/schedule"
	"github.com/okian/quals/internal/domain/trend"
	"github.com/okian/quals/pkg/logger"
	"github.com/okian/quals/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultSeason         = 2025
	DefaultMatchesPerTeam = 6
)

// Fetcher retrieves event statistics from the outside world.
type Fetcher interface {
	EventReport(ctx context.Context, code string, season int) (model.EventReport, error)
	QualsSchedule(ctx context.Context, code string, season int) ([]model.Match, error)
}

// Service implements the API dependencies for the forecaster.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	fetcher   Fetcher
	store     repository.Store
	generator *schedule.Generator
	driver    *montecarlo.Driver

	// Configuration
	season         int
	alpha          float64
	matchesPerTeam int
	maxRetries     int
	trials         int
	trialWorkers   int
	seed           int64
	seeded         bool

	// State
	started bool
	rngMu   sync.Mutex
	master  *rand.Rand

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the statistics source.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithStore sets the report cache.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSeason sets the season used when a request does not name one.
func WithSeason(season int) Option {
	return func(s *Service) {
		if season > 0 {
			s.season = season
		}
	}
}

// WithTrendAlpha sets the recency decay of rating predictions.
func WithTrendAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha >= 0 {
			s.alpha = alpha
		}
	}
}

// WithMatchesPerTeam sets the default number of matches per team.
func WithMatchesPerTeam(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.matchesPerTeam = n
		}
	}
}

// WithMaxRetries sets the schedule generator's draw budget per match.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithTrials sets the number of Monte Carlo trials per forecast.
func WithTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trials = n
		}
	}
}

// WithTrialWorkers sets the size of the trial worker pool.
func WithTrialWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trialWorkers = n
		}
	}
}

// WithSeed makes the service reproducible. Schedule and ranking requests
// draw their sources from a master generator seeded once, so consecutive
// calls differ while a fresh service replays the same sequence.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
		s.seeded = true
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		season:         DefaultSeason,
		alpha:          trend.DefaultAlpha,
		matchesPerTeam: DefaultMatchesPerTeam,
		maxRetries:     schedule.DefaultMaxRetries,
		trials:         montecarlo.DefaultTrials,
		trialWorkers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires the collaborators. Missing ones get in-memory defaults.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		store, err := repository.NewCacheStore(ctx, repository.WithLogger(s.logger.Named("cache")))
		if err != nil {
			return fmt.Errorf("create report cache: %w", err)
		}
		s.store = store
	}
	if s.fetcher == nil {
		s.fetcher = statsapi.NewClient(statsapi.WithLogger(s.logger.Named("statsapi")))
	}

	s.generator = schedule.NewGenerator(
		schedule.WithMaxRetries(s.maxRetries),
		schedule.WithLogger(s.logger.Named("schedule")),
	)
	driverOpts := []montecarlo.Option{
		montecarlo.WithTrials(s.trials),
		montecarlo.WithWorkers(s.trialWorkers),
		montecarlo.WithGenerator(s.generator),
		montecarlo.WithLogger(s.logger.Named("montecarlo")),
	}
	if s.seeded {
		driverOpts = append(driverOpts, montecarlo.WithSeed(s.seed))
	}
	s.driver = montecarlo.NewDriver(driverOpts...)

	s.rngMu.Lock()
	if s.seeded && s.master == nil {
		s.master = rand.New(rand.NewSource(s.seed)) //nolint:gosec // simulation randomness
	}
	s.rngMu.Unlock()

	s.started = true
	s.logger.Info(ctx, "forecast service started",
		logger.Int("season", s.season),
		logger.Int("matches_per_team", s.matchesPerTeam),
		logger.Int("trials", s.trials),
		logger.Int("trial_workers", s.trialWorkers),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "forecast service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) seasonOr(season int) int {
	if season > 0 {
		return season
	}
	return s.season
}

func (s *Service) rng() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.master != nil {
		return rand.New(rand.NewSource(s.master.Int63())) //nolint:gosec // simulation randomness
	}
	return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation randomness
}

// Report returns the metrics table of an event with predicted ratings,
// served from cache when possible.
func (s *Service) Report(ctx context.Context, code string, season int) (model.EventReport, error) {
	if err := s.ready(); err != nil {
		return model.EventReport{}, err
	}
	season = s.seasonOr(season)
	key := repository.Key(code, season)

	if report, ok := s.store.Get(ctx, key); ok {
		s.logger.Debug(ctx, "report cache hit", logger.String("key", key))
		return report, nil
	}

	report, err := s.fetcher.EventReport(ctx, code, season)
	if err != nil {
		metrics.RecordErrorByComponent("service", "fetch_report")
		return model.EventReport{}, fmt.Errorf("event %s: %w", code, err)
	}
	table, err := report.Table()
	if err != nil {
		return model.EventReport{}, fmt.Errorf("event %s: %w", code, err)
	}
	trend.Apply(table, s.alpha)
	report.Teams = table.Teams()

	if err := s.store.Set(ctx, key, report); err != nil {
		s.logger.Warn(ctx, "report not cached", logger.String("key", key), logger.Error(err))
	}
	metrics.UpdateCacheEntries(s.store.Count(ctx))
	return report, nil
}

// Reports collects several events. Events that fail are logged and left out.
func (s *Service) Reports(ctx context.Context, codes []string, season int) (map[string]model.EventReport, error) {
	out := make(map[string]model.EventReport, len(codes))
	for _, code := range codes {
		report, err := s.Report(ctx, code, season)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn(ctx, "event skipped", logger.String("event", code), logger.Error(err))
			continue
		}
		out[code] = report
	}
	return out, nil
}

func (s *Service) table(ctx context.Context, code string, season int) (model.EventReport, *model.Table, error) {
	report, err := s.Report(ctx, code, season)
	if err != nil {
		return model.EventReport{}, nil, err
	}
	table, err := report.Table()
	if err != nil {
		return model.EventReport{}, nil, fmt.Errorf("event %s: %w", code, err)
	}
	return report, table, nil
}

// GenerateSchedule draws a practice schedule for the teams of an event.
func (s *Service) GenerateSchedule(ctx context.Context, code string, season, matchesPerTeam int) (ScheduleResult, error) {
	report, table, err := s.table(ctx, code, season)
	if err != nil {
		return ScheduleResult{}, err
	}
	if matchesPerTeam <= 0 {
		matchesPerTeam = s.matchesPerTeam
	}
	res, err := s.generator.Generate(s.rng(), table.IDs(), matchesPerTeam)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("event %s: %w", code, err)
	}
	metrics.RecordScheduleGenerated(res.DuplicateAlliances)
	s.logger.Info(ctx, "schedule generated",
		logger.String("event", code),
		logger.Int("matches", len(res.Matches)),
		logger.Int("duplicate_alliances", res.DuplicateAlliances),
	)
	return ScheduleResult{
		EventInfo:          infoOf(report),
		MatchesCount:       len(res.Matches),
		DuplicateAlliances: res.DuplicateAlliances,
		Schedule:           res.Matches,
	}, nil
}

// ImportSchedule returns the real qualification schedule of an event.
func (s *Service) ImportSchedule(ctx context.Context, code string, season int) (ScheduleResult, error) {
	if err := s.ready(); err != nil {
		return ScheduleResult{}, err
	}
	season = s.seasonOr(season)
	matches, err := s.fetcher.QualsSchedule(ctx, code, season)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("event %s: %w", code, err)
	}

	info := EventInfo{Code: code, Name: "Event " + code, Season: season}
	if report, err := s.Report(ctx, code, season); err == nil {
		info = infoOf(report)
	} else {
		s.logger.Debug(ctx, "event name unavailable", logger.String("event", code), logger.Error(err))
	}
	return ScheduleResult{
		EventInfo:    info,
		MatchesCount: len(matches),
		Schedule:     matches,
		IsReal:       true,
	}, nil
}

func checkSchedule(matches []model.Match) error {
	if len(matches) == 0 {
		return ErrEmptySchedule
	}
	for _, m := range matches {
		if !m.Distinct() {
			return fmt.Errorf("%w: match %d repeats a team", ErrInvalidSchedule, m.Number)
		}
	}
	return nil
}

// PredictMatches estimates every match of a schedule from season ratings.
func (s *Service) PredictMatches(ctx context.Context, code string, season int, matches []model.Match) (PredictionResult, error) {
	if err := checkSchedule(matches); err != nil {
		return PredictionResult{}, err
	}
	report, table, err := s.table(ctx, code, season)
	if err != nil {
		return PredictionResult{}, err
	}
	preds := prediction.Predict(matches, table)
	return PredictionResult{EventInfo: infoOf(report), Count: len(preds), Predictions: preds}, nil
}

// Rank plays a schedule once and returns the simulated seeding table.
func (s *Service) Rank(ctx context.Context, code string, season int, matches []model.Match) (RankingResult, error) {
	if err := checkSchedule(matches); err != nil {
		return RankingResult{}, err
	}
	report, table, err := s.table(ctx, code, season)
	if err != nil {
		return RankingResult{}, err
	}
	rows := ranking.Simulate(s.rng(), matches, table)
	return RankingResult{EventInfo: infoOf(report), TeamsCount: len(rows), Ranking: rows}, nil
}

// Simulate forecasts one team's seeding over repeated trials.
func (s *Service) Simulate(ctx context.Context, code string, season, team int) (SimulationResult, error) {
	report, table, err := s.table(ctx, code, season)
	if err != nil {
		return SimulationResult{}, err
	}
	if !table.Has(team) {
		return SimulationResult{}, fmt.Errorf("team %d: %w", team, ErrTeamNotInEvent)
	}
	summary, err := s.driver.Simulate(ctx, table, team, s.matchesPerTeam)
	if err != nil {
		return SimulationResult{}, s.simulationError(ctx, code, err)
	}
	return SimulationResult{EventInfo: infoOf(report), Type: SimulationSingle, Results: summary}, nil
}

// Compare forecasts two teams independently and reports the better one.
func (s *Service) Compare(ctx context.Context, code string, season, team1, team2 int) (ComparisonResult, error) {
	if team1 == team2 {
		return ComparisonResult{}, ErrSameTeam
	}
	report, table, err := s.table(ctx, code, season)
	if err != nil {
		return ComparisonResult{}, err
	}
	for _, team := range []int{team1, team2} {
		if !table.Has(team) {
			return ComparisonResult{}, fmt.Errorf("team %d: %w", team, ErrTeamNotInEvent)
		}
	}
	cmp, err := s.driver.Compare(ctx, table, team1, team2, s.matchesPerTeam)
	if err != nil {
		return ComparisonResult{}, s.simulationError(ctx, code, err)
	}
	return ComparisonResult{EventInfo: infoOf(report), Type: SimulationComparison, Results: cmp}, nil
}

func (s *Service) simulationError(ctx context.Context, code string, err error) error {
	if errors.Is(err, montecarlo.ErrAllSimulationsFailed) {
		metrics.RecordErrorByComponent("montecarlo", "all_failed")
	}
	s.logger.Error(ctx, "simulation failed", logger.String("event", code), logger.Error(err))
	return fmt.Errorf("event %s: %w", code, err)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"season":           s.season,
		"matches_per_team": s.matchesPerTeam,
		"trials":           s.trials,
		"trial_workers":    s.trialWorkers,
	}
	if s.started {
		cached := s.store.Count(context.Background())
		stats["cached_reports"] = cached
		metrics.UpdateCacheEntries(cached)
	}
	return stats
}
