package statsapi

import "strings"

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type matchTeam struct {
	TeamNumber int    `json:"teamNumber"`
	Alliance   string `json:"alliance"`
}

// Match is a played match as returned by the statistics API.
type Match struct {
	MatchNum        int         `json:"matchNum"`
	TournamentLevel string      `json:"tournamentLevel"`
	Teams           []matchTeam `json:"teams"`
}

func (m Match) alliance(color string) []int {
	var ids []int
	for _, t := range m.Teams {
		if strings.EqualFold(t.Alliance, color) {
			ids = append(ids, t.TeamNumber)
		}
	}
	return ids
}

type eventData struct {
	EventByCode *struct {
		Name  string `json:"name"`
		Teams []struct {
			Team struct {
				Number int `json:"number"`
			} `json:"team"`
		} `json:"teams"`
		Matches []Match `json:"matches"`
	} `json:"eventByCode"`
}

type allianceScore struct {
	TotalPointsNp float64 `json:"totalPointsNp"`
	AutoPoints    float64 `json:"autoPoints"`
	DcPoints      float64 `json:"dcPoints"`
	GoalRp        bool    `json:"goalRp"`
	PatternRp     bool    `json:"patternRp"`
	MovementRp    bool    `json:"movementRp"`
}

type teamMatch struct {
	Match struct {
		MatchNum int         `json:"matchNum"`
		Teams    []matchTeam `json:"teams"`
		Scores   *struct {
			Red  *allianceScore `json:"red"`
			Blue *allianceScore `json:"blue"`
		} `json:"scores"`
	} `json:"match"`
}

type teamEvent struct {
	Event struct {
		Name      string `json:"name"`
		UpdatedAt string `json:"updatedAt"`
	} `json:"event"`
	Stats *struct {
		OPR *struct {
			TotalPointsNp float64 `json:"totalPointsNp"`
		} `json:"opr"`
	} `json:"stats"`
}

type teamData struct {
	TeamByNumber *struct {
		Number     int         `json:"number"`
		Name       string      `json:"name"`
		Matches    []teamMatch `json:"matches"`
		Events     []teamEvent `json:"events"`
		QuickStats *struct {
			Tot struct {
				Value float64 `json:"value"`
			} `json:"tot"`
		} `json:"quickStats"`
	} `json:"teamByNumber"`
}
