package model

// Match is one scheduled qualification match.
type Match struct {
	Number int    `json:"match" validate:"gt=0"`
	Red    [2]int `json:"red" validate:"dive,gt=0"`
	Blue   [2]int `json:"blue" validate:"dive,gt=0"`
}

// Teams returns the four participants, red first.
func (m Match) Teams() [4]int {
	return [4]int{m.Red[0], m.Red[1], m.Blue[0], m.Blue[1]}
}

// Distinct reports whether the four participants are pairwise distinct.
func (m Match) Distinct() bool {
	ids := m.Teams()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				return false
			}
		}
	}
	return true
}

// AllianceKey identifies a two-team alliance regardless of order.
type AllianceKey struct {
	Low  int
	High int
}

// NewAllianceKey builds the key for the pair (a, b).
func NewAllianceKey(a, b int) AllianceKey {
	if a > b {
		a, b = b, a
	}
	return AllianceKey{Low: a, High: b}
}

// MatchCounts tracks matches scheduled per team.
type MatchCounts map[int]int

// MinMax returns the lowest and highest count. Both are zero for an empty map.
func (c MatchCounts) MinMax() (lo, hi int) {
	first := true
	for _, n := range c {
		if first {
			lo, hi = n, n
			first = false
			continue
		}
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return lo, hi
}

// Winner labels the predicted winning alliance.
type Winner string

// Possible winners.
const (
	WinnerRed  Winner = "red"
	WinnerBlue Winner = "blue"
	WinnerTie  Winner = "tie"
)

// AllianceTotals are summed metrics of one alliance.
type AllianceTotals struct {
	Teams        [2]int    `json:"teams"`
	Names        [2]string `json:"names"`
	Rating       float64   `json:"opr"`
	NetPoints    float64   `json:"net"`
	AutoPoints   float64   `json:"auto"`
	RankingScore float64   `json:"rs"`
}

// MatchPrediction is the deterministic outcome estimate for one match.
type MatchPrediction struct {
	Match  int            `json:"match"`
	Red    AllianceTotals `json:"red"`
	Blue   AllianceTotals `json:"blue"`
	Winner Winner         `json:"winner"`
	Margin float64        `json:"win_margin"`
}
