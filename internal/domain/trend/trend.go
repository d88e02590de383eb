// Package trend forecasts a team's next-event OPR from its per-event history.
package trend

import (
	"errors"
	"math"

	"github.com/okian/quals/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is the default exponential recency decay.
const DefaultAlpha = 0.5

// Sentinel errors for trend fitting.
var (
	ErrEmptyHistory     = errors.New("empty rating history")
	ErrNonFiniteHistory = errors.New("rating history holds a non-finite value")
)

// Predict fits a weighted least-squares line over history (index 0 is the
// oldest event) and evaluates it at the next index, rounded to 2 decimals.
//
// Event i carries weight exp(alpha*i) on its residual, so the squared-error
// weight handed to the regression is exp(2*alpha*i). Weights are scaled so
// the newest event has weight 1, which leaves the fitted line unchanged.
// When older weights underflow the fit degenerates to its limit, the line
// through the two newest events. Negative forecasts are returned as computed.
func Predict(history []float64, alpha float64) (float64, error) {
	for _, v := range history {
		if !finite(v) {
			return 0, ErrNonFiniteHistory
		}
	}
	switch len(history) {
	case 0:
		return 0, ErrEmptyHistory
	case 1:
		return history[0], nil
	}

	n := len(history)
	xs := make([]float64, n)
	ws := make([]float64, n)
	for i := range history {
		xs[i] = float64(i)
		ws[i] = math.Exp(2 * alpha * float64(i-(n-1)))
	}

	intercept, slope := stat.LinearRegression(xs, history, ws, false)
	v := intercept + slope*float64(n)
	if !finite(v) {
		v = 2*history[n-1] - history[n-2]
	}
	if !finite(v) {
		v = history[n-1]
	}
	return model.Round2(v), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Apply fills PredictedRating for every team in the table, falling back to
// the season rating when a team's history cannot be fitted.
func Apply(table *model.Table, alpha float64) {
	for _, tm := range table.Teams() {
		v, err := Predict(tm.RatingHistory, alpha)
		if err != nil {
			v = tm.Rating
		}
		table.SetPredicted(tm.ID, v)
	}
}
