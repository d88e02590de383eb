// Package ranking runs one stochastic pass over a schedule and produces the
// resulting seeding table.
package ranking

import (
	"math/rand"
	"sort"

	"github.com/okian/quals/internal/domain/model"
)

// WinBonus is added to the winning alliance's task points.
const WinBonus = 3

type tally struct {
	points   float64
	tieBreak float64
	auto     float64
	wins     int
	losses   int
	matches  int
}

type side struct {
	ids     [2]int
	members [2]model.TeamMetrics
}

func newSide(ids [2]int, table *model.Table) side {
	return side{ids: ids, members: [2]model.TeamMetrics{table.Lookup(ids[0]), table.Lookup(ids[1])}}
}

func (s side) rating() float64 { return s.members[0].Rating + s.members[1].Rating }
func (s side) net() float64    { return s.members[0].NetPoints + s.members[1].NetPoints }
func (s side) auto() float64   { return s.members[0].AutoPoints + s.members[1].AutoPoints }

// taskPoints draws the goal, pattern and movement achievements in that order.
// Each succeeds with the members' mean rate.
func (s side) taskPoints(rng *rand.Rand) float64 {
	a, b := s.members[0], s.members[1]
	var pts float64
	for _, p := range [3]float64{
		(a.GoalRate + b.GoalRate) / 2,
		(a.PatternRate + b.PatternRate) / 2,
		(a.MovementRate + b.MovementRate) / 2,
	} {
		if rng.Float64() < p {
			pts++
		}
	}
	return pts
}

// Simulate plays every match once with rng and ranks the teams by average
// ranking points, then average tie-break points. Rows cover every table team
// in table order followed by any unknown id found in the schedule. Equal
// teams keep that order and still receive distinct positions.
func Simulate(rng *rand.Rand, matches []model.Match, table *model.Table) []model.RankingRow {
	order := table.IDs()
	tallies := make(map[int]*tally, len(order))
	for _, id := range order {
		tallies[id] = &tally{}
	}
	get := func(id int) *tally {
		t, ok := tallies[id]
		if !ok {
			t = &tally{}
			tallies[id] = t
			order = append(order, id)
		}
		return t
	}

	for _, m := range matches {
		red, blue := newSide(m.Red, table), newSide(m.Blue, table)
		redPts := red.taskPoints(rng)
		bluePts := blue.taskPoints(rng)

		var winner, loser *side
		switch r, b := red.rating(), blue.rating(); {
		case r > b:
			winner, loser = &red, &blue
			redPts += WinBonus
		case b > r:
			winner, loser = &blue, &red
			bluePts += WinBonus
		}
		if winner != nil {
			for _, id := range winner.ids {
				get(id).wins++
			}
			for _, id := range loser.ids {
				get(id).losses++
			}
		}

		for _, s := range []struct {
			side
			pts float64
		}{{red, redPts}, {blue, bluePts}} {
			net, auto := s.net(), s.auto()
			for _, id := range s.ids {
				t := get(id)
				t.points += s.pts
				t.tieBreak += net
				t.auto += auto
				t.matches++
			}
		}
	}

	rows := make([]model.RankingRow, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		tm := table.Lookup(id)
		rows = append(rows, model.RankingRow{
			Team:         id,
			Name:         tm.Name,
			RankingScore: average(t.points, t.matches),
			Wins:         t.wins,
			Losses:       t.losses,
			TieBreak:     average(t.tieBreak, t.matches),
			Rating:       model.Round2(tm.Rating),
			AutoPoints:   average(t.auto, t.matches),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RankingScore != rows[j].RankingScore {
			return rows[i].RankingScore > rows[j].RankingScore
		}
		return rows[i].TieBreak > rows[j].TieBreak
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// Position returns the 1-based position and win count of team in rows.
func Position(rows []model.RankingRow, team int) (position, wins int, ok bool) {
	for _, r := range rows {
		if r.Team == team {
			return r.Position, r.Wins, true
		}
	}
	return 0, 0, false
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return model.Round2(sum / float64(n))
}
