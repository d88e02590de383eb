// Package schedule builds practice qualification schedules that spread
// matches evenly and avoid repeating alliance pairings.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/pkg/logger"
)

// Default generator configuration constants.
const (
	DefaultMaxRetries    = 50
	DefaultSplitAttempts = 5
	teamsPerMatch        = 4
)

var (
	// ErrInsufficientTeams is returned when fewer than four distinct teams are supplied.
	ErrInsufficientTeams = errors.New("at least 4 distinct teams are required")
	// ErrInvalidMatchesPerTeam is returned when the per-team match target is below one.
	ErrInvalidMatchesPerTeam = errors.New("matches per team must be positive")
)

// Result is a generated schedule.
type Result struct {
	Matches []model.Match `json:"schedule"`
	// DuplicateAlliances counts matches that had to reuse an alliance pairing.
	DuplicateAlliances int               `json:"duplicate_alliances"`
	Counts             model.MatchCounts `json:"-"`
}

// Generator produces randomized schedules. It holds no per-call state and is
// safe for concurrent use as long as each caller supplies its own rng.
type Generator struct {
	maxRetries    int
	splitAttempts int
	logger        logger.Logger
}

// NewGenerator creates a generator with configuration options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		maxRetries:    DefaultMaxRetries,
		splitAttempts: DefaultSplitAttempts,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TotalMatches returns the number of matches needed so every one of n teams
// plays at least perTeam times.
func TotalMatches(n, perTeam int) int {
	return (n*perTeam + teamsPerMatch - 1) / teamsPerMatch
}

// Generate draws a schedule for teams with matchesPerTeam appearances each.
// Every team ends with matchesPerTeam or matchesPerTeam+1 matches.
func (g *Generator) Generate(rng *rand.Rand, teams []int, matchesPerTeam int) (Result, error) {
	roster := distinct(teams)
	if len(roster) < teamsPerMatch {
		return Result{}, fmt.Errorf("%w: got %d", ErrInsufficientTeams, len(roster))
	}
	if matchesPerTeam < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidMatchesPerTeam, matchesPerTeam)
	}

	st := &state{
		counts:   make(model.MatchCounts, len(roster)),
		used:     make(map[model.AllianceKey]struct{}),
		previous: make(map[int]struct{}, teamsPerMatch),
		pool:     make([]int, len(roster)),
	}
	for _, id := range roster {
		st.counts[id] = 0
	}

	total := TotalMatches(len(roster), matchesPerTeam)
	res := Result{Matches: make([]model.Match, 0, total), Counts: st.counts}

	for n := 1; n <= total; n++ {
		quad, ok := g.drawMatch(rng, roster, st)
		if !ok {
			res.DuplicateAlliances++
		}
		m := model.Match{
			Number: n,
			Red:    [2]int{quad[0], quad[1]},
			Blue:   [2]int{quad[2], quad[3]},
		}
		st.used[model.NewAllianceKey(m.Red[0], m.Red[1])] = struct{}{}
		st.used[model.NewAllianceKey(m.Blue[0], m.Blue[1])] = struct{}{}

		clear(st.previous)
		for _, id := range quad {
			st.counts[id]++
			st.previous[id] = struct{}{}
		}
		res.Matches = append(res.Matches, m)
	}

	lo, hi := st.counts.MinMax()
	g.logger.Debug(context.Background(), "schedule generated",
		logger.Int("teams", len(roster)),
		logger.Int("matches", len(res.Matches)),
		logger.Int("duplicate_alliances", res.DuplicateAlliances),
		logger.Int("min_per_team", lo),
		logger.Int("max_per_team", hi),
	)
	return res, nil
}

type state struct {
	counts   model.MatchCounts
	used     map[model.AllianceKey]struct{}
	previous map[int]struct{}
	pool     []int
}

// drawMatch returns four teams ordered red, red, blue, blue. The boolean is
// false when no fresh pairing could be found and the last draw was accepted
// as is.
func (g *Generator) drawMatch(rng *rand.Rand, roster []int, st *state) ([teamsPerMatch]int, bool) {
	var quad [teamsPerMatch]int
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		quad = st.candidates(rng, roster)
		for split := 0; split < g.splitAttempts; split++ {
			rng.Shuffle(len(quad), func(i, j int) { quad[i], quad[j] = quad[j], quad[i] })
			if st.fresh(quad) {
				return quad, true
			}
		}
	}
	return quad, false
}

// candidates shuffles the roster and then stably orders it by matches played,
// with teams from the previous match last among equals.
func (st *state) candidates(rng *rand.Rand, roster []int) [teamsPerMatch]int {
	copy(st.pool, roster)
	rng.Shuffle(len(st.pool), func(i, j int) { st.pool[i], st.pool[j] = st.pool[j], st.pool[i] })
	sort.SliceStable(st.pool, func(i, j int) bool {
		a, b := st.pool[i], st.pool[j]
		if st.counts[a] != st.counts[b] {
			return st.counts[a] < st.counts[b]
		}
		_, aPrev := st.previous[a]
		_, bPrev := st.previous[b]
		return !aPrev && bPrev
	})
	var quad [teamsPerMatch]int
	copy(quad[:], st.pool[:teamsPerMatch])
	return quad
}

func (st *state) fresh(quad [teamsPerMatch]int) bool {
	if _, ok := st.used[model.NewAllianceKey(quad[0], quad[1])]; ok {
		return false
	}
	_, ok := st.used[model.NewAllianceKey(quad[2], quad[3])]
	return !ok
}

// distinct drops repeated ids, keeping the first occurrence.
func distinct(teams []int) []int {
	seen := make(map[int]struct{}, len(teams))
	out := make([]int, 0, len(teams))
	for _, id := range teams {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
