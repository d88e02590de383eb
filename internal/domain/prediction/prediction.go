// Package prediction estimates match outcomes from summed season ratings.
package prediction

import (
	"math"

	"github.com/okian/quals/internal/domain/model"
)

// Predict returns one deterministic prediction per match, in schedule order.
// Teams missing from table contribute zero-valued metrics.
func Predict(matches []model.Match, table *model.Table) []model.MatchPrediction {
	out := make([]model.MatchPrediction, 0, len(matches))
	for _, m := range matches {
		out = append(out, PredictMatch(m, table))
	}
	return out
}

// PredictMatch compares the two alliances of a single match.
func PredictMatch(m model.Match, table *model.Table) model.MatchPrediction {
	red, redRating := alliance(m.Red, table)
	blue, blueRating := alliance(m.Blue, table)

	p := model.MatchPrediction{Match: m.Number, Red: red, Blue: blue, Winner: model.WinnerTie}
	switch {
	case redRating > blueRating:
		p.Winner = model.WinnerRed
	case blueRating > redRating:
		p.Winner = model.WinnerBlue
	}
	p.Margin = model.Round2(math.Abs(redRating - blueRating))
	return p
}

// alliance sums the members' metrics. The unrounded rating is returned
// separately so the winner is decided before rounding.
func alliance(ids [2]int, table *model.Table) (model.AllianceTotals, float64) {
	a, b := table.Lookup(ids[0]), table.Lookup(ids[1])
	rating := a.Rating + b.Rating
	return model.AllianceTotals{
		Teams:        ids,
		Names:        [2]string{a.Name, b.Name},
		Rating:       model.Round2(rating),
		NetPoints:    model.Round2(a.NetPoints + b.NetPoints),
		AutoPoints:   model.Round2(a.AutoPoints + b.AutoPoints),
		RankingScore: model.Round2(a.RankingScore + b.RankingScore),
	}, rating
}
