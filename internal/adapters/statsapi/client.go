// Package statsapi fetches team and event statistics from the FTCScout
// GraphQL API and turns them into metrics tables.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/pkg/logger"
	"github.com/okian/quals/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultURL         = "https://api.ftcscout.org/graphql"
	defaultTimeout     = 30 * time.Second
	defaultRetryMax    = 3
	defaultRetryMin    = 200 * time.Millisecond
	defaultRetryWait   = 5 * time.Second
	defaultConcurrency = 8
	defaultRateLimit   = 20
	winBonus           = 3
	maxResponseBytes   = 32 << 20
)

var (
	// ErrNotFound is returned when the event or team does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrUpstream is returned when the statistics API cannot be reached or answers with an error.
	ErrUpstream = errors.New("statistics api error")
	// ErrNoMatches is returned for a team with no scored matches in the season.
	ErrNoMatches = errors.New("team has no scored matches")
	// ErrNoTeamData is returned when no team of an event produced metrics.
	ErrNoTeamData = errors.New("no team data collected")
)

// Client talks to the statistics API. It is safe for concurrent use.
type Client struct {
	url         string
	http        *retryablehttp.Client
	limiter     *rate.Limiter
	concurrency int
	logger      logger.Logger
}

// NewClient creates a statistics client with configuration options.
func NewClient(opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = defaultTimeout
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = defaultRetryMin
	rc.RetryWaitMax = defaultRetryWait
	rc.CheckRetry = retryPolicy

	c := &Client{
		url:         DefaultURL,
		http:        rc,
		limiter:     rate.NewLimiter(defaultRateLimit, 1),
		concurrency: defaultConcurrency,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.Logger = leveled{c.logger}
	return c
}

// retryPolicy retries network errors, rate limiting and server errors only.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, err
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Event returns the event name and its registered team numbers.
func (c *Client) Event(ctx context.Context, code string, season int) (string, []int, error) {
	var data eventData
	if err := c.query(ctx, "event", eventQuery, map[string]any{"season": season, "code": code}, &data); err != nil {
		return "", nil, err
	}
	if data.EventByCode == nil {
		return "", nil, fmt.Errorf("event %s/%d: %w", code, season, ErrNotFound)
	}
	teams := make([]int, 0, len(data.EventByCode.Teams))
	for _, t := range data.EventByCode.Teams {
		teams = append(teams, t.Team.Number)
	}
	return data.EventByCode.Name, teams, nil
}

// TeamMetrics aggregates one team's season into per-match averages.
func (c *Client) TeamMetrics(ctx context.Context, team, season int) (model.TeamMetrics, error) {
	var data teamData
	if err := c.query(ctx, "team", teamQuery, map[string]any{"number": team, "season": season}, &data); err != nil {
		return model.TeamMetrics{}, err
	}
	if data.TeamByNumber == nil {
		return model.TeamMetrics{}, fmt.Errorf("team %d: %w", team, ErrNotFound)
	}
	return buildMetrics(team, data)
}

// EventReport fetches the roster of an event and the season metrics of every
// team on it. Teams without scored matches or whose lookup fails are left out.
// Rows are ordered by ranking score, best first.
func (c *Client) EventReport(ctx context.Context, code string, season int) (model.EventReport, error) {
	name, roster, err := c.Event(ctx, code, season)
	if err != nil {
		return model.EventReport{}, err
	}

	rows := make([]*model.TeamMetrics, len(roster))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, team := range roster {
		i, team := i, team
		g.Go(func() error {
			tm, err := c.TeamMetrics(gctx, team, season)
			switch {
			case err == nil:
				rows[i] = &tm
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				c.logger.Warn(gctx, "team skipped", logger.Int("team", team), logger.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.EventReport{}, err
	}

	report := model.EventReport{Code: code, Name: name, Season: season, FetchedAt: time.Now().UTC()}
	seen := make(map[int]struct{}, len(rows))
	for _, tm := range rows {
		if tm == nil {
			continue
		}
		if _, dup := seen[tm.ID]; dup {
			continue
		}
		seen[tm.ID] = struct{}{}
		report.Teams = append(report.Teams, *tm)
	}
	if len(report.Teams) == 0 {
		return model.EventReport{}, fmt.Errorf("event %s/%d: %w", code, season, ErrNoTeamData)
	}
	sort.SliceStable(report.Teams, func(i, j int) bool {
		return report.Teams[i].RankingScore > report.Teams[j].RankingScore
	})

	c.logger.Info(ctx, "event report collected",
		logger.String("event", code),
		logger.Int("season", season),
		logger.Int("roster", len(roster)),
		logger.Int("teams", len(report.Teams)),
	)
	return report, nil
}

// QualsSchedule returns the real qualification schedule of an event.
func (c *Client) QualsSchedule(ctx context.Context, code string, season int) ([]model.Match, error) {
	var data eventData
	if err := c.query(ctx, "event_matches", eventMatchesQuery, map[string]any{"season": season, "code": code}, &data); err != nil {
		return nil, err
	}
	if data.EventByCode == nil {
		return nil, fmt.Errorf("event %s/%d: %w", code, season, ErrNotFound)
	}
	matches := FromMatches(data.EventByCode.Matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("event %s/%d has no qualification matches: %w", code, season, ErrNotFound)
	}
	return matches, nil
}

// FromMatches keeps qualification matches with two teams per alliance and
// converts them to schedule entries, preserving their match numbers.
func FromMatches(raw []Match) []model.Match {
	out := make([]model.Match, 0, len(raw))
	for _, m := range raw {
		if !strings.EqualFold(m.TournamentLevel, "quals") {
			continue
		}
		red, blue := m.alliance("red"), m.alliance("blue")
		if len(red) < 2 || len(blue) < 2 {
			continue
		}
		out = append(out, model.Match{
			Number: m.MatchNum,
			Red:    [2]int{red[0], red[1]},
			Blue:   [2]int{blue[0], blue[1]},
		})
	}
	return out
}

func buildMetrics(team int, data teamData) (model.TeamMetrics, error) {
	td := data.TeamByNumber
	var (
		n                          int
		net, auto, dc, rs          float64
		goals, patterns, movements float64
	)
	for _, entry := range td.Matches {
		m := entry.Match
		if m.Scores == nil || m.Scores.Red == nil || m.Scores.Blue == nil {
			continue
		}
		var color string
		for _, t := range m.Teams {
			if t.TeamNumber == team {
				color = strings.ToLower(t.Alliance)
				break
			}
		}
		var own, opp *allianceScore
		switch color {
		case "red":
			own, opp = m.Scores.Red, m.Scores.Blue
		case "blue":
			own, opp = m.Scores.Blue, m.Scores.Red
		default:
			continue
		}

		n++
		net += own.TotalPointsNp
		auto += own.AutoPoints
		dc += own.DcPoints
		score := boolToFloat(own.GoalRp) + boolToFloat(own.PatternRp) + boolToFloat(own.MovementRp)
		if own.TotalPointsNp > opp.TotalPointsNp {
			score += winBonus
		}
		rs += score
		goals += boolToFloat(own.GoalRp)
		patterns += boolToFloat(own.PatternRp)
		movements += boolToFloat(own.MovementRp)
	}
	if n == 0 {
		return model.TeamMetrics{}, fmt.Errorf("team %d: %w", team, ErrNoMatches)
	}

	events := append([]teamEvent(nil), td.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Event.UpdatedAt < events[j].Event.UpdatedAt })
	history := make([]float64, 0, len(events))
	for _, e := range events {
		if e.Stats == nil || e.Stats.OPR == nil {
			continue
		}
		history = append(history, math.Round(e.Stats.OPR.TotalPointsNp*10)/10)
	}

	var season float64
	if td.QuickStats != nil {
		season = td.QuickStats.Tot.Value
	}

	count := float64(n)
	return model.TeamMetrics{
		ID:            team,
		Name:          td.Name,
		Rating:        model.Round2(season),
		NetPoints:     net / count,
		AutoPoints:    auto / count,
		DriverPoints:  dc / count,
		RankingScore:  rs / count,
		GoalRate:      goals / count,
		PatternRate:   patterns / count,
		MovementRate:  movements / count,
		RatingHistory: history,
		MatchesPlayed: n,
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// query posts a GraphQL document and decodes its data into out.
func (c *Client) query(ctx context.Context, op, doc string, vars map[string]any, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordUpstreamRequest(op, float64(time.Since(start).Milliseconds()), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(gqlRequest{Query: doc, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode %s query: %w", op, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read body: %w: %v", op, ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrUpstream)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: decode envelope: %w: %v", op, ErrUpstream, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%s: %w: %s", op, ErrUpstream, strings.Join(msgs, "; "))
	}
	if len(envelope.Errors) > 0 {
		c.logger.Debug(ctx, "partial graphql errors", logger.String("operation", op), logger.Int("errors", len(envelope.Errors)))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w: %v", op, ErrUpstream, err)
	}
	return nil
}
