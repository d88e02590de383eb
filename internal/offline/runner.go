package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/quals/internal/adapters/statsapi"
	service "github.com/okian/quals/internal/app"
	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// fileFetcher serves one event loaded from disk.
type fileFetcher struct {
	report   model.EventReport
	schedule []model.Match
}

func (f *fileFetcher) EventReport(_ context.Context, code string, season int) (model.EventReport, error) {
	if code != f.report.Code {
		return model.EventReport{}, fmt.Errorf("event %s: %w", code, statsapi.ErrNotFound)
	}
	r := f.report
	r.Season = season
	r.FetchedAt = time.Now().UTC()
	r.Teams = append([]model.TeamMetrics(nil), f.report.Teams...)
	return r, nil
}

func (f *fileFetcher) QualsSchedule(_ context.Context, code string, _ int) ([]model.Match, error) {
	if code != f.report.Code || len(f.schedule) == 0 {
		return nil, fmt.Errorf("event %s has no schedule: %w", code, statsapi.ErrNotFound)
	}
	return append([]model.Match(nil), f.schedule...), nil
}

// Run loads the input file and runs every forecast on it: a schedule, its
// predictions and one simulated ranking, plus the Monte Carlo forecasts
// for the configured teams.
func Run(ctx context.Context, config *Config) (*Result, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Named("offline")

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	report, schedule, err := LoadInput(config.Input)
	if err != nil {
		return nil, err
	}
	if config.UseSchedule && len(schedule) == 0 {
		return nil, fmt.Errorf("%w: no schedule to play", ErrInvalidInput)
	}

	log.Info(ctx, "starting offline forecast",
		logger.String("input", config.Input),
		logger.String("event", report.Code),
		logger.Int("teams", len(report.Teams)),
		logger.Int("trials", config.Trials),
		logger.Int("workers", config.Workers),
		logger.Int64("seed", config.Seed),
	)

	opts := []service.Option{
		service.WithFetcher(&fileFetcher{report: report, schedule: schedule}),
		service.WithMatchesPerTeam(config.MatchesPerTeam),
		service.WithTrials(config.Trials),
		service.WithTrialWorkers(config.Workers),
		service.WithTrendAlpha(config.Alpha),
		service.WithLogger(log.Named("service")),
	}
	if report.Season > 0 {
		opts = append(opts, service.WithSeason(report.Season))
	}
	if config.Seed != 0 {
		opts = append(opts, service.WithSeed(config.Seed))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	res := &Result{}
	if config.UseSchedule {
		res.Schedule, err = svc.ImportSchedule(ctx, report.Code, 0)
	} else {
		res.Schedule, err = svc.GenerateSchedule(ctx, report.Code, 0, config.MatchesPerTeam)
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	res.Event = res.Schedule.EventInfo

	if res.Predictions, err = svc.PredictMatches(ctx, report.Code, 0, res.Schedule.Schedule); err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	if res.Ranking, err = svc.Rank(ctx, report.Code, 0, res.Schedule.Schedule); err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}

	switch {
	case config.Team != 0 && config.Against != 0:
		cmp, err := svc.Compare(ctx, report.Code, 0, config.Team, config.Against)
		if err != nil {
			return nil, fmt.Errorf("comparison: %w", err)
		}
		res.Comparison = &cmp
	case config.Team != 0:
		sim, err := svc.Simulate(ctx, report.Code, 0, config.Team)
		if err != nil {
			return nil, fmt.Errorf("simulation: %w", err)
		}
		res.Simulation = &sim
	}

	stats.Teams = len(report.Teams)
	stats.Matches = res.Schedule.MatchesCount
	stats.DuplicateAlliances = res.Schedule.DuplicateAlliances
	for _, p := range res.Predictions.Predictions {
		switch p.Winner {
		case model.WinnerRed:
			stats.RedWins++
		case model.WinnerBlue:
			stats.BlueWins++
		default:
			stats.Ties++
		}
	}
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	res.Stats = stats

	displayFinalStats(ctx, log, res)
	return res, nil
}

// Write encodes the result as indented JSON to path, or to w when path is empty.
func Write(ctx context.Context, w io.Writer, path string, res *Result) error {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, directoryPermission); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
			}
		}()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if path != "" {
		logger.Get().Info(ctx, "result saved to file", logger.String("filename", path))
	}
	return nil
}

// displayFinalStats logs a one-line digest of the run.
func displayFinalStats(ctx context.Context, log logger.Logger, res *Result) {
	fields := []logger.Field{
		logger.Int("teams", res.Stats.Teams),
		logger.Int("matches", res.Stats.Matches),
		logger.Int("duplicateAlliances", res.Stats.DuplicateAlliances),
		logger.Int("redWins", res.Stats.RedWins),
		logger.Int("blueWins", res.Stats.BlueWins),
		logger.Int("ties", res.Stats.Ties),
		logger.String("duration", res.Stats.Duration.String()),
	}
	if sim := res.Simulation; sim != nil {
		fields = append(fields,
			logger.Int("team", sim.Results.Team),
			logger.Float64("avgPosition", sim.Results.AvgPosition),
			logger.Int("top10", sim.Results.Distribution.Top10),
		)
	}
	if cmp := res.Comparison; cmp != nil {
		fields = append(fields, logger.Int("better", cmp.Results.Better))
	}
	log.Info(ctx, "final statistics", fields...)
}
